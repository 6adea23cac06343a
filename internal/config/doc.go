// Package config defines the application's configuration structure and
// loading logic. Settings come from an optional config.yaml plus environment
// variables with the GOLFSWARM_ prefix, and are validated before use.
package config
