package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilConfig is returned when Load receives a nil pointer.
var ErrNilConfig = errors.New("config: target must be a non-nil pointer to a struct")

var (
	dotenvOnce sync.Once

	// cache holds one parsed value per config type so repeated loads of the
	// same type observe identical configuration for the process lifetime.
	cache sync.Map // reflect.Type -> any
)

// Load parses environment variables into cfg based on its `env` struct tags.
// A .env file in the working directory is loaded once per process before the
// first parse; a missing file is not an error. Each config type is parsed only
// once: subsequent calls for the same type return the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	dotenvOnce.Do(func() {
		// Missing .env is the normal case outside local development.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}

	// Another goroutine may have parsed the same type concurrently; keep the
	// first stored value so all callers agree.
	actual, _ := cache.LoadOrStore(key, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for process startup
// where a missing required variable should abort immediately.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
