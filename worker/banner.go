package worker

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"

	"github.com/ArshdKhan/queuectl/config"
)

// PrintBanner writes a startup banner to stderr when a ProcessPool is
// launched in detached mode, reporting the configuration a casual
// `ps` inspection of the worker processes wouldn't show.
func PrintBanner(cfg *config.Config, workers int) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 54
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  QUEUECTL — durable job queue%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvPad := 20
	rows := [][2]string{
		{"Workers", fmt.Sprintf("%d", workers)},
		{"Store", cfg.DBPath},
		{"Max retries", fmt.Sprintf("%d", cfg.MaxRetries)},
		{"Backoff base", fmt.Sprintf("%.1f", cfg.BackoffBase)},
		{"Poll interval", fmt.Sprintf("%.1fs", cfg.WorkerPollInterval)},
		{"Job timeout", fmt.Sprintf("%ds", cfg.JobTimeout)},
	}
	for _, kv := range rows {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
}
