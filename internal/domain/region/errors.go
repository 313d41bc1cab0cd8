package region

import "errors"

var (
	// ErrRegionNotFound means the platform reported no area for a required region
	ErrRegionNotFound = errors.New("region not found")
	// ErrAmbiguousRegion means the platform reported more than one area for a region
	ErrAmbiguousRegion = errors.New("ambiguous region")
	// ErrUnknownRegion means the identifier has no feature mapping
	ErrUnknownRegion = errors.New("unknown region")
)
