// Package formstate wires a form definition, its validation engine and draft
// persistence into a ready-to-use screen.
package formstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/authforms"
	"github.com/goliatone/go-formstate/pkg/draft"
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/validators"
)

// FormKind selects which screen Open builds.
type FormKind string

const (
	FormLogin       FormKind = "login"
	FormLoginSchema FormKind = "login-schema"
	FormSignup      FormKind = "signup"
)

// ErrUnknownForm is returned by Open for an unrecognised FormKind.
var ErrUnknownForm = errors.New("formstate: unknown form")

// Options configures Open. Zero values fall back to package defaults.
type Options struct {
	Form FormKind
	// Store holds the email draft. Nil keeps drafts in memory.
	Store        draft.Store
	DraftKey     string
	Debounce     time.Duration
	AsyncDelay   time.Duration
	AsyncTimeout time.Duration
	EmailChecker validators.EmailChecker
	Clock        forms.Clock
	Logger       *zap.Logger
}

// Screen is one open form with its engine and draft subscription.
type Screen struct {
	Form   authforms.Form
	Engine *forms.Engine
	draft  *forms.Subscription
	logger *zap.Logger
}

// Open builds the requested form, starts its engine and restores the saved
// email draft. Both login and signup share the same draft key.
func Open(ctx context.Context, opts Options) (*Screen, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	kind := opts.Form
	if kind == "" {
		kind = FormLogin
	}

	form, err := buildForm(ctx, kind, opts.EmailChecker)
	if err != nil {
		return nil, err
	}

	engineOpts := []forms.EngineOption{
		forms.WithLogger(logger.Named("engine")),
		forms.WithInputSanitizer(form.Sanitizer()),
		forms.WithAsyncDelay(opts.AsyncDelay),
	}
	if opts.AsyncTimeout > 0 {
		engineOpts = append(engineOpts, forms.WithAsyncTimeout(opts.AsyncTimeout))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, forms.WithClock(opts.Clock))
	}
	engine := forms.New(form.Root, engineOpts...)

	store := opts.Store
	if store == nil {
		store = draft.NewMemoryStore()
	}
	sub := draft.Attach(ctx, engine, store,
		draft.WithKey(opts.DraftKey),
		draft.WithField(authforms.EmailPath),
		draft.WithDebounce(opts.Debounce),
		draft.WithLogger(logger.Named("draft")),
	)

	logger.Debug("screen opened", zap.String("form", string(kind)))
	return &Screen{Form: form, Engine: engine, draft: sub, logger: logger}, nil
}

func buildForm(ctx context.Context, kind FormKind, checker validators.EmailChecker) (authforms.Form, error) {
	switch kind {
	case FormLogin:
		return authforms.Login(), nil
	case FormLoginSchema:
		return authforms.LoginFromSchema(ctx)
	case FormSignup:
		return authforms.Signup(checker), nil
	default:
		return authforms.Form{}, fmt.Errorf("%w: %q", ErrUnknownForm, kind)
	}
}

// Session returns a terminal session for the screen.
func (s *Screen) Session(opts ...tui.Option) (*tui.Session, error) {
	opts = append([]tui.Option{tui.WithLogger(s.logger.Named("tui"))}, opts...)
	return tui.NewSession(s.Engine, s.Form.Model, opts...)
}

// Close stops draft persistence and tears the engine down. Pending draft
// writes are dropped.
func (s *Screen) Close() {
	if s == nil {
		return
	}
	if s.draft != nil {
		s.draft.Cancel()
	}
	s.Engine.Close()
}
