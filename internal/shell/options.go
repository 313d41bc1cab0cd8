package shell

import (
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/embedding"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/region"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// FromConfig translates loaded configuration into shell options
func FromConfig(cfg *config.Config) (Options, error) {
	var errs []error

	regions := region.DefaultConfig()
	for name, feature := range cfg.Regions.Features {
		rid, err := types.ParseRegionID(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		regions.Features[rid] = types.FeatureID(feature)
	}
	for name, layer := range cfg.Regions.Layers {
		rid, err := types.ParseRegionID(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		regions.Layers[rid] = layer
	}
	if cfg.Regions.AutoStartRegion != "" {
		rid, err := types.ParseRegionID(cfg.Regions.AutoStartRegion)
		if err != nil {
			errs = append(errs, err)
		}
		regions.AutoStartRegion = rid
	}
	if cfg.Regions.AutoStartComponent != "" {
		comp, err := types.ParseComponent(cfg.Regions.AutoStartComponent)
		if err != nil {
			errs = append(errs, err)
		}
		regions.AutoStartIntent = types.Intent{Component: comp}
	}
	regions.BackgroundPackages = cfg.Components.BackgroundPackages

	nav, err := layout.ParseNavPosition(cfg.Display.NavPosition)
	if err != nil {
		errs = append(errs, err)
	}
	geometry := layout.Geometry{
		Width:            cfg.Display.Width,
		Height:           cfg.Display.Height,
		DPI:              cfg.Display.DPI,
		NavPosition:      nav,
		NavSize:          cfg.Display.NavSize,
		ControlBarHeight: cfg.Layout.ControlBarHeight,
		DefaultHeight:    cfg.Layout.DefaultHeight,
		FullHeight:       cfg.Layout.FullHeight,
		TitleBarHeight:   cfg.Layout.TitleBarHeight,
	}
	if err := geometry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("layout: %w", err))
	}
	lay := layout.Config{
		Geometry:             geometry,
		AnimationDuration:    time.Duration(cfg.Layout.AnimationDurationMS) * time.Millisecond,
		DragThreshold:        cfg.Layout.DragThreshold,
		CornerRadius:         cfg.Layout.CornerRadius,
		ForegroundComponents: cfg.Components.Foreground,
		IgnoreOpening:        cfg.Components.IgnoreOpening,
	}
	if cfg.Components.VoiceOverlay != "" {
		lay.VoiceOverlayComponent, err = types.ParseComponent(cfg.Components.VoiceOverlay)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Components.ControlBar != "" {
		lay.ControlBarComponent, err = types.ParseComponent(cfg.Components.ControlBar)
		if err != nil {
			errs = append(errs, err)
		}
	}

	opts := Options{
		Regions:       regions,
		Layout:        lay,
		Host:          embedding.Host{TaskID: types.TaskID(cfg.Host.TaskID), UserID: cfg.Host.UserID},
		FrameInterval: time.Duration(cfg.Layout.FrameIntervalMS) * time.Millisecond,
	}

	for i, task := range cfg.Tasks.Controlled {
		comp, err := types.ParseComponent(task.Component)
		if err != nil {
			errs = append(errs, fmt.Errorf("controlled task %d: %w", i, err))
			continue
		}
		rid, err := types.ParseRegionID(task.Region)
		if err != nil {
			errs = append(errs, fmt.Errorf("controlled task %d: %w", i, err))
			continue
		}
		policy, err := embedding.ParsePolicy(task.Policy)
		if err != nil {
			errs = append(errs, fmt.Errorf("controlled task %d: %w", i, err))
			continue
		}
		opts.Controlled = append(opts.Controlled, embedding.ControlledOptions{
			Name:               task.Name,
			Region:             rid,
			Intent:             types.Intent{Component: comp},
			Policy:             policy,
			DependencyPackages: task.Dependencies,
		})
	}

	if cfg.Tasks.LaunchRootRegion != "" {
		rid, err := types.ParseRegionID(cfg.Tasks.LaunchRootRegion)
		if err != nil {
			errs = append(errs, err)
		}
		opts.LaunchRootRegion = rid
	}
	for _, semi := range cfg.Tasks.SemiControlled {
		opts.SemiControlled = append(opts.SemiControlled, embedding.SemiControlledOptions{
			Name:  semi.Name,
			Match: embedding.MatchComponents(semi.Components...),
		})
	}

	if err := errors.Join(errs...); err != nil {
		return Options{}, err
	}
	return opts, nil
}
