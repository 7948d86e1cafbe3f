package portalkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bellinghamdata/portalkit/api"
	"github.com/bellinghamdata/portalkit/core/config"
	"github.com/bellinghamdata/portalkit/core/httpclient"
	"github.com/bellinghamdata/portalkit/core/kv"
	"github.com/bellinghamdata/portalkit/core/session"
	"github.com/bellinghamdata/portalkit/core/signal"
	"github.com/bellinghamdata/portalkit/core/stream"
	"github.com/bellinghamdata/portalkit/integration/redis"
)

// Store backends selectable through Config.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// ErrUnknownStore is returned when Config.Store names a backend this package
// does not provide.
var ErrUnknownStore = errors.New("portalkit: unknown store backend")

// Config assembles the whole client from the environment. Load it with
// core/config, or fill it directly.
type Config struct {
	// BaseURL targets the portal API. Empty means same-origin relative
	// paths, which only works behind a proxy that fills in the host.
	BaseURL string `env:"PORTAL_API_BASE_URL" envDefault:""`

	// MaxRetries is the process-wide ceiling on retries of transient
	// request failures.
	MaxRetries int `env:"PORTAL_MAX_RETRIES" envDefault:"1"`

	// RetryDelay pauses between attempts. Zero resubmits immediately.
	RetryDelay time.Duration `env:"PORTAL_RETRY_DELAY" envDefault:"0"`

	// Store picks where session facts persist across restarts:
	// "memory", "file", or "redis".
	Store string `env:"PORTAL_STORE" envDefault:"memory"`

	// FilePath locates the session record document for the file store.
	FilePath string `env:"PORTAL_STORE_FILE" envDefault:".portalkit-session.json"`

	// Redis holds the connection settings used when Store is "redis".
	Redis redis.Config
}

// Portal is the assembled client: one shared HTTP layer with retry and
// credential attachment, a session manager bound to it, typed API calls, and
// server-push streams. Create it with New and release it with Close.
type Portal struct {
	Session *session.Manager
	API     *api.Client
	Streams *stream.Client

	hub   *signal.Hub
	redis *goredis.Client
}

type options struct {
	logger *slog.Logger
	store  kv.Store
	clock  func() time.Time
}

// Option adjusts Portal assembly.
type Option func(*options)

// WithLogger sets the structured logger shared by every component.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithStore overrides Config.Store with a caller-provided persistence
// backend.
func WithStore(store kv.Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}

// WithClock overrides the session manager's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// New assembles a Portal from cfg. The context bounds store connection
// establishment only; the returned Portal is independent of it.
func New(ctx context.Context, cfg Config, opts ...Option) (*Portal, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Portal{hub: signal.NewHub()}

	store := o.store
	if store == nil {
		var err error
		if store, err = p.openStore(ctx, cfg); err != nil {
			p.close()
			return nil, err
		}
	}
	records := session.NewRecordStore(store)

	clientOpts := []httpclient.Option{
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithSignalHub(p.hub),
		httpclient.WithTokenSource(func(ctx context.Context) string {
			token, err := store.Get(ctx, session.KeyToken)
			if err != nil {
				return ""
			}
			return token
		}),
	}
	if cfg.RetryDelay > 0 {
		clientOpts = append(clientOpts, httpclient.WithRetryDelay(cfg.RetryDelay))
	}
	if o.logger != nil {
		clientOpts = append(clientOpts, httpclient.WithLogger(o.logger))
	}

	hc, err := httpclient.New(cfg.BaseURL, clientOpts...)
	if err != nil {
		p.close()
		return nil, err
	}

	if p.API, err = api.New(hc); err != nil {
		p.close()
		return nil, err
	}

	sessionOpts := []session.Option{session.WithSignalHub(p.hub)}
	if o.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(o.logger))
	}
	if o.clock != nil {
		sessionOpts = append(sessionOpts, session.WithClock(o.clock))
	}

	if p.Session, err = session.New(p.API, records, sessionOpts...); err != nil {
		p.close()
		return nil, err
	}

	streamOpts := []stream.Option{stream.WithSignalHub(p.hub)}
	if o.logger != nil {
		streamOpts = append(streamOpts, stream.WithLogger(o.logger))
	}
	p.Streams = stream.New(hc, streamOpts...)

	return p, nil
}

// Load assembles a Portal from the environment.
func Load(ctx context.Context, opts ...Option) (*Portal, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

func (p *Portal) openStore(ctx context.Context, cfg Config) (kv.Store, error) {
	switch cfg.Store {
	case StoreMemory, "":
		return kv.NewMemory(), nil
	case StoreFile:
		return kv.NewFile(cfg.FilePath)
	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		p.redis = client
		return redis.NewStore(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// Close stops the session manager's expiry timer, detaches signal listeners,
// and releases any store connection. The Portal must not be used afterwards.
func (p *Portal) Close() error {
	var err error
	if p.Session != nil {
		err = p.Session.Close()
	}
	p.close()
	return err
}

func (p *Portal) close() {
	if p.hub != nil {
		p.hub.Close()
	}
	if p.redis != nil {
		p.redis.Close()
	}
}
