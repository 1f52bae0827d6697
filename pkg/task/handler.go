package task

import (
	"log"
	"sync"
)

// FailureHandler receives failures that reach a fire-and-forget root task.
// It is invoked exactly once per failing root, synchronously, before the
// root transitions to StateFailed. Cancellations never reach the handler,
// and neither do failures of deferred roots (those surface on Await).
type FailureHandler func(t *Task, err error)

var (
	handlerMu      sync.RWMutex
	failureHandler FailureHandler = defaultFailureHandler
)

// RegisterFailureHandler replaces the process-wide unhandled-failure handler.
// Passing nil restores the default handler. Safe for concurrent use with
// failure delivery.
func RegisterFailureHandler(h FailureHandler) {
	if h == nil {
		h = defaultFailureHandler
	}
	handlerMu.Lock()
	failureHandler = h
	handlerMu.Unlock()
}

func currentFailureHandler() FailureHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return failureHandler
}

func defaultFailureHandler(t *Task, err error) {
	log.Printf("treescope: unhandled failure in task %q (id=%d): %v", t.Name(), t.ID(), err)
}
