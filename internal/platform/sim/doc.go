// Package sim is an in-memory device the shell can run against: screen
// areas, a task stack, user and display state, package broadcasts and a
// compositor that records the state every committed transaction produces.
//
// The daemon runs on it when no real platform is attached, and integration
// tests drive it to provoke crashes, display changes and area loss.
//
// Example Usage:
//
//	dev := sim.New(sim.Options{UserID: 10, Width: 1920, Height: 1080}, logger)
//	dev.SetSink(shell.Dispatch)
//	dev.CrashTask(taskID)
package sim
