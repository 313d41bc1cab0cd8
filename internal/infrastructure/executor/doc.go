// Package executor provides the shell execution context.
//
// All region, task and animator state in the shell is owned by a single
// Serial executor. Signals arriving on other goroutines (HTTP handlers,
// platform callbacks, frame timers) are re-dispatched onto it with Execute
// and run to completion without preemption.
//
// Key Components:
//   - Executor: Anything that can run a closure
//   - Serial: FIFO drained by one goroutine, with after-each hooks
//   - Immediate: Inline execution for tests and synchronous callers
//
// Example Usage:
//
//	shell := executor.NewSerial(logger)
//	shell.AfterEach(queue.Flush)
//	go shell.Run(ctx)
//	shell.Execute(func() { organizer.HandleRegionEvent(ev) })
package executor
