// Package transaction batches surface and container operations and commits
// them to the compositor atomically.
//
// Work produced while handling one signal is queued and flushed once, after
// the handler returns, so all region updates from one event land in one
// frame. Animation frames bypass the deferral with Apply.
package transaction
