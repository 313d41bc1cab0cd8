// Package types provides shared data structures for the shell.
//
// This package defines the vocabulary every shell component speaks, so the
// transaction, animation, region, layout and embedding layers never import
// each other just to exchange values.
//
// Core Types:
//   - Rect: Integer pixel rectangle (left/top inclusive, right/bottom exclusive)
//   - RegionID, FeatureID: Logical screen regions and their platform feature ids
//   - LayoutState: CONTROL_BAR, DEFAULT, FULL
//   - TaskInfo, Component, Intent: Running tasks and launch targets
//
// Events:
//   - Event: Tagged variant for every signal the shell consumes
//   - RegionEvent: RegionAppeared | RegionVanished
//   - TaskEvent: TaskAppeared | TaskInfoChanged | TaskVanished
//   - VisibilityChanged: The one signal the shell emits
//
// Example Usage:
//
//	switch ev := event.(type) {
//	case types.TaskVanished:
//	    restart(ev.Task)
//	case types.PackageChanged:
//	    retry(ev.Package)
//	}
package types
