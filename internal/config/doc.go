// Package config defines the application configuration structure and
// loading mechanism. Configuration is resolved once at startup from
// defaults, an optional config file, and ANKIGEN_-prefixed environment
// variables, then passed explicitly to every component.
package config
