package types

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
)

// RegionID names a logical screen region
type RegionID string

const (
	RegionBackground   RegionID = "background"
	RegionForeground   RegionID = "foreground"
	RegionTitleBar     RegionID = "title-bar"
	RegionControlBar   RegionID = "control-bar"
	RegionVoiceOverlay RegionID = "voice-overlay"
	RegionIME          RegionID = "ime"
)

// AllRegions lists every region in registration order
func AllRegions() []RegionID {
	return []RegionID{
		RegionForeground,
		RegionTitleBar,
		RegionVoiceOverlay,
		RegionBackground,
		RegionControlBar,
		RegionIME,
	}
}

// ParseRegionID validates a region name
func ParseRegionID(s string) (RegionID, error) {
	for _, r := range AllRegions() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// Required reports whether shell startup must find exactly one platform area
// for the region. The IME placeholder is optional.
func (r RegionID) Required() bool {
	return r != RegionIME
}

func (r RegionID) String() string { return string(r) }

// FeatureID is the platform-level identifier of a screen-area feature
type FeatureID int

const (
	// FeatureRoot is the root display area feature
	FeatureRoot FeatureID = 0
	// FeatureDefaultTaskContainer hosts tasks started without a target area
	FeatureDefaultTaskContainer FeatureID = 1
	// FeatureIMEPlaceholder hosts the input method
	FeatureIMEPlaceholder FeatureID = 7
	// FeatureVendorFirst is the first feature id available to vendors
	FeatureVendorFirst FeatureID = 10001
)

// DefaultFeatures maps each region to its stock platform feature id
func DefaultFeatures() map[RegionID]FeatureID {
	return map[RegionID]FeatureID{
		RegionForeground:   FeatureVendorFirst + 1,
		RegionBackground:   FeatureVendorFirst + 2,
		RegionControlBar:   FeatureVendorFirst + 4,
		RegionTitleBar:     FeatureVendorFirst + 5,
		RegionVoiceOverlay: FeatureVendorFirst + 6,
		RegionIME:          FeatureIMEPlaceholder,
	}
}

// DefaultLayers is the static z-order priority table. Gaps of 100 leave room
// for deployments to slot layers in between.
func DefaultLayers() map[RegionID]int {
	return map[RegionID]int{
		RegionBackground:   100,
		RegionForeground:   200,
		RegionIME:          250,
		RegionTitleBar:     300,
		RegionControlBar:   400,
		RegionVoiceOverlay: 500,
	}
}

// RegionInfo describes a platform screen area as reported on appearance
type RegionInfo struct {
	Feature     FeatureID `json:"feature"`
	RootFeature FeatureID `json:"root_feature"`
	Token       id.Token  `json:"token"`
}

// AppearedRegion pairs an area with the surface backing it
type AppearedRegion struct {
	Info    RegionInfo   `json:"info"`
	Surface id.SurfaceID `json:"surface"`
}

// Region is a snapshot of one live, registered region
type Region struct {
	ID      RegionID     `json:"id"`
	Token   id.Token     `json:"token"`
	Surface id.SurfaceID `json:"surface"`
	Bounds  Rect         `json:"bounds"`
	Layer   int          `json:"layer"`
	Visible bool         `json:"visible"`
}
