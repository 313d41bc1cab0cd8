// Package shell assembles the home shell core.
//
// A Shell owns one serial executor. The transaction queue, animation engine,
// region organizer, layout controller and task embedding manager all live on
// it and are never touched from another goroutine; platform callbacks enter
// through Dispatch and API calls through the blocking helpers (Start,
// StartAnimation, Snapshot). Every closure run on the executor is followed by
// a transaction queue flush, so one dispatch produces at most one compositor
// commit.
package shell
