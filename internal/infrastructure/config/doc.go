// Package config provides layered configuration for the shell daemon.
//
// Values start from Default, are overlaid by an optional YAML or TOML file
// and finally by environment variables prefixed with SHELL_.
//
// Configuration Sections:
//   - Server: HTTP diagnostics server (host, port)
//   - Logging: Log level, output format and paths
//   - RateLimit: Per-IP rate limiting for the control API
//   - Display: Screen size, density and nav bar placement
//   - Layout: Region heights, animation duration and drag threshold
//   - Regions: Feature id and layer overrides, auto-start intent
//   - Components: Component patterns steering the foreground region
//   - Host: The shell's own task and user
//   - Tasks: Embedded tasks
//
// Example Usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Addr())
//
// Environment Variables:
//   - SHELL_CONFIG: path to a .yaml, .yml or .toml file
//   - SHELL_SERVER_HOST, SHELL_SERVER_PORT
//   - SHELL_LOGGING_LEVEL, SHELL_LOGGING_DEVELOPMENT
//   - SHELL_DISPLAY_WIDTH, SHELL_DISPLAY_HEIGHT, SHELL_DISPLAY_DPI
//   - SHELL_LAYOUT_ANIMATION_DURATION_MS, SHELL_LAYOUT_DRAG_THRESHOLD
//   - SHELL_HOST_TASK_ID, SHELL_HOST_USER_ID
package config
