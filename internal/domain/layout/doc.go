// Package layout moves the shell's regions between layout states.
//
// Bounds for each state are a pure function of the screen geometry
// (ComputeBounds). The Controller animates the foreground region and the
// title bar riding on it, and commits the static regions once the last
// animation ends. It also follows title bar drags and opens or closes the
// foreground region in response to launched components.
package layout
