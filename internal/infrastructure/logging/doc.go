// Package logging provides structured logging using uber/zap.
//
// Production mode writes JSON for machine parsing; development mode writes
// colored console output. Every shell component logs through a named child
// of the root logger, so output can be filtered by component:
//
//	log, err := logging.New(logging.Config{Level: "info"})
//	organizer := region.NewOrganizer(cfg, region.Deps{Logger: log.Component("organizer")})
//
// The level is atomic and can be raised or lowered while the shell runs.
package logging
