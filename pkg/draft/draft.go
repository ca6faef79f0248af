package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/forms"
)

const (
	// DefaultKey is the storage key drafts are written under.
	DefaultKey = "saved-login-form"
	// DefaultDebounce is the quiet period before a draft is written.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultField is the path of the persisted field.
	DefaultField = "email"
)

// Draft is the persisted subset of a form.
type Draft struct {
	Email string `json:"email"`
}

// Options configures Restore, Persist and Attach.
type Options struct {
	Key      string
	Field    string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.Key = key
		}
	}
}

// WithField overrides DefaultField.
func WithField(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.Field = path
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Debounce = d
		}
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func newOptions(opts ...Option) Options {
	cfg := Options{
		Key:      DefaultKey,
		Field:    DefaultField,
		Debounce: DefaultDebounce,
		Logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Load reads and decodes the draft under key. ok is false when nothing is
// stored.
func Load(ctx context.Context, store Store, key string) (Draft, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return Draft{}, false, err
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}, false, fmt.Errorf("draft: decode %q: %w", key, err)
	}
	return d, true, nil
}

// Save encodes and writes d under key.
func Save(ctx context.Context, store Store, key string, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: encode: %w", err)
	}
	return store.Set(ctx, key, string(data))
}

// Restore reads the stored draft once and patches the persisted field. An
// empty stored email leaves the field untouched.
func Restore(ctx context.Context, e *forms.Engine, store Store, opts ...Option) error {
	cfg := newOptions(opts...)
	d, ok, err := Load(ctx, store, cfg.Key)
	if err != nil {
		return err
	}
	if !ok || d.Email == "" {
		return nil
	}
	if err := e.Patch(cfg.Field, d.Email); err != nil {
		return fmt.Errorf("draft: restore %s: %w", cfg.Field, err)
	}
	cfg.Logger.Debug("draft restored", zap.String("key", cfg.Key))
	return nil
}

// Persist writes the persisted field after each quiet period. ctx scopes the
// store calls; cancel the returned subscription (or close the engine) to stop.
func Persist(ctx context.Context, e *forms.Engine, store Store, opts ...Option) *forms.Subscription {
	cfg := newOptions(opts...)
	return e.OnChange(cfg.Debounce, func(value any) {
		email, _ := forms.Lookup(value, cfg.Field)
		text, _ := email.(string)
		if err := Save(ctx, store, cfg.Key, Draft{Email: text}); err != nil {
			cfg.Logger.Warn("draft not saved", zap.String("key", cfg.Key), zap.Error(err))
			return
		}
		cfg.Logger.Debug("draft saved", zap.String("key", cfg.Key))
	})
}

// Attach restores the draft, then starts persisting. Restore failures are
// logged and do not prevent persistence.
func Attach(ctx context.Context, e *forms.Engine, store Store, opts ...Option) *forms.Subscription {
	cfg := newOptions(opts...)
	if err := Restore(ctx, e, store, opts...); err != nil {
		cfg.Logger.Warn("draft not restored", zap.String("key", cfg.Key), zap.Error(err))
	}
	return Persist(ctx, e, store, opts...)
}
