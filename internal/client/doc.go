/*
Package client is the Go client for the shell daemon's control API.

Requests go through resty on a retryablehttp transport, and every call passes
a circuit breaker so a dead daemon fails fast instead of stalling the caller.
Settings come from SHELLCTL_* environment variables:

	cfg, err := client.ConfigFromEnv()
	c := client.New(cfg, logger)
	regions, err := c.Regions(ctx)

Non-2xx answers come back as *APIError; StatusCode extracts the status.
*/
package client
