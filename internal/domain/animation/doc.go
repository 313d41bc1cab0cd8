// Package animation slides region surfaces between vertical positions.
//
// The Engine keeps at most one Animator per region token. Requests in the
// same direction retarget a running animator; requests in the other
// direction cancel it and start from where it stopped. Every Tick computes
// crop, corner radius and position for all running animators and commits
// them as one transaction. Listeners receive Started, Updated, Ended and
// Canceled events on the shell executor.
//
// The FrameLoop drives Tick from a timer while animators are live; tests
// call Tick directly with a controlled clock.
package animation
