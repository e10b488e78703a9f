// Package internal holds small lifecycle primitives shared by Worker,
// Pool and Janitor in the worker package. None of it is queue-specific;
// it exists to avoid repeating the same start/stop plumbing in every
// background task.
package internal

// DoneChan is closed once whatever it represents has finished.
type DoneChan chan struct{}

// DoneFunc begins an asynchronous stop and returns a channel that
// closes when the stop has fully completed.
type DoneFunc func() DoneChan
