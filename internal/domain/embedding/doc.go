// Package embedding keeps tasks embedded in shell regions alive.
//
// The Manager owns three kinds of embedded task:
//   - Controlled: the shell starts the intent itself and starts it again
//     according to its Policy
//   - Launch root: an empty container task other launches are redirected into
//   - Semi-controlled: tasks that appear inside the launch root and match a
//     predicate
//
// The Manager is a region.Claimer, so task events for embedded tasks never
// reach the organizer's default policy. Every method must be called on the
// shell executor.
package embedding
