// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/bellinghamdata/portalkit/core/config"
//
//	type ClientConfig struct {
//		BaseURL    string `env:"PORTAL_API_BASE_URL,required"`
//		MaxRetries int    `env:"PORTAL_MAX_RETRIES" envDefault:"1"`
//	}
//
//	func main() {
//		var cfg ClientConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime.
// Loading the same type twice returns the cached value, so configuration is
// consistent across components even if the environment mutates mid-run.
// Different types are cached independently.
package config
