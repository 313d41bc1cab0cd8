// Package region owns the shell's screen regions.
//
// The Organizer maps logical region identifiers to platform feature ids,
// binds each to exactly one platform area, assigns z-order layers and
// routes task lifecycle events either to the embedding claimers or to the
// default policy.
package region
