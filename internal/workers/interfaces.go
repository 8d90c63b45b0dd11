// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running and stopping multiple workers in a unified way.
package workers

// Worker is the interface that must be implemented by any background
// worker. Run starts the worker's execution; implementations are expected
// to spawn their goroutines internally and return. Stop requests
// termination and blocks until the worker has exited.
type Worker interface {
	Run()
	Stop()
}
