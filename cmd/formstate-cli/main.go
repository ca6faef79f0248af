package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/pkg/draft"
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

const redacted = "[redacted]"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code. Deferred cleanup,
// including the logger flush, completes before it returns.
func execute(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("formstate-cli", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML configuration file (defaults apply when empty)")
	form := flags.String("form", "", "form to open: login, login-schema or signup")
	store := flags.String("store", "", "draft store backend: memory, file or redis")
	output := flags.String("output", "", "output format: json, form or pretty")
	showSecrets := flags.Bool("show-secrets", false, "print password fields instead of redacting them")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *form != "" {
		cfg.Form = *form
	}
	if *store != "" {
		cfg.Store.Backend = *store
	}
	if *output != "" {
		cfg.Output = *output
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := run(ctx, cfg, logger, *showSecrets)
	if errors.Is(err, tui.ErrAborted) {
		logger.Info("session aborted")
		fmt.Fprintln(stderr, "aborted")
		return 1
	}
	if err != nil {
		logger.Error("session failed", zap.Error(err))
		fmt.Fprintf(stderr, "Session failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, showSecrets bool) ([]byte, error) {
	store, closeStore, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	screen, err := formstate.Open(ctx, formstate.Options{
		Form:         formstate.FormKind(cfg.Form),
		Store:        store,
		DraftKey:     cfg.Draft.Key,
		Debounce:     cfg.Draft.Debounce,
		AsyncDelay:   cfg.Async.Delay,
		AsyncTimeout: cfg.Async.Timeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	defer screen.Close()

	opts := []tui.Option{
		tui.WithOutputFormat(tui.OutputFormat(cfg.Output)),
		tui.WithTheme(tui.Theme{InfoPrefix: "» ", ErrorPrefix: "✗ "}),
	}
	if !showSecrets {
		opts = append(opts, tui.WithSubmitTransformer(redactSecrets(screen.Form.Secrets)))
	}
	session, err := screen.Session(opts...)
	if err != nil {
		return nil, err
	}
	return session.Run(ctx)
}

func newStore(cfg config.StoreConfig) (draft.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendFile:
		return draft.NewFileStore(cfg.Path), func() {}, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := draft.NewRedisStore(client, draft.WithKeyPrefix(cfg.Redis.Prefix), draft.WithTTL(cfg.Redis.TTL))
		return store, func() { _ = client.Close() }, nil
	case config.BackendMemory, "":
		return draft.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newLogger writes JSON logs to a rotating file so prompts stay readable.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.File) == "" {
		return zap.NewNop(), nil
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
	return zap.New(core).Named("formstate"), nil
}

func redactSecrets(paths []string) tui.SubmitTransformer {
	return func(values map[string]any) (map[string]any, error) {
		for _, path := range paths {
			redact(values, forms.SplitPath(path))
		}
		return values, nil
	}
}

func redact(values map[string]any, segments []string) {
	if len(segments) == 0 {
		return
	}
	key := segments[0]
	if len(segments) == 1 {
		if _, ok := values[key]; ok {
			values[key] = redacted
		}
		return
	}
	if nested, ok := values[key].(map[string]any); ok {
		redact(nested, segments[1:])
	}
}
