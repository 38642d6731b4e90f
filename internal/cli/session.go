package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/config"
	"github.com/roach88/labledger/internal/ledger"
	"github.com/roach88/labledger/internal/redisstore"
	"github.com/roach88/labledger/internal/store"
)

// session is an open store plus the handler that owns it.
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	store   ledger.Store
	sqlite  *store.Store // set for the sqlite driver
	handler *ledger.Handler
	closers []io.Closer
}

// Close releases the store and any Redis connections.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Store.Driver = opts.Driver
	}
	if flags.Changed("db") {
		cfg.Store.Path = opts.Database
	}
	if flags.Changed("redis-addr") {
		cfg.Store.RedisAddr = opts.RedisAddr
	}
	if flags.Changed("namespace") {
		cfg.Store.Namespace = opts.Namespace
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger on w.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openSession loads config, opens the configured store and sinks, and
// builds a handler. Failures are reported through f and returned as
// command errors.
func openSession(ctx context.Context, cmd *cobra.Command, opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	s := &session{cfg: cfg, logger: newLogger(cfg, cmd.ErrOrStderr())}
	handlerOpts := []ledger.Option{
		ledger.WithRequireTester(cfg.Ledger.RequireTester),
		ledger.WithLogger(s.logger),
	}

	var rc *redisstore.Client
	redisClient := func() (*redisstore.Client, error) {
		if rc != nil {
			return rc, nil
		}
		c, err := redisstore.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr}, cfg.Store.Namespace)
		if err != nil {
			return nil, err
		}
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Store.RedisAddr, err)
		}
		s.closers = append(s.closers, c)
		rc = c
		return c, nil
	}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		s.store = ledger.NewMemStore()
	case config.DriverSQLite:
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		s.closers = append(s.closers, st)
		s.store, s.sqlite = st, st

		// Resume notice numbering where the journal left off
		last, err := st.LastSeq(ctx)
		if err != nil {
			s.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to read journal", err)
		}
		handlerOpts = append(handlerOpts, ledger.WithClock(ledger.NewClockAt(last)))
	case config.DriverRedis:
		c, err := redisClient()
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to connect to redis", err)
		}
		s.store = c
	default:
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "unsupported store", fmt.Errorf("unknown driver %q", cfg.Store.Driver))
	}

	var sinks ledger.MultiSink
	if cfg.Notify.Log {
		sinks = append(sinks, ledger.LogSink{Logger: s.logger})
	}
	if cfg.Notify.Redis {
		c, err := redisClient()
		if err != nil {
			s.Close()
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to connect to redis", err)
		}
		sinks = append(sinks, c.Sink(s.logger))
	}

	s.handler = ledger.NewHandler(s.store, sinks, handlerOpts...)
	s.logger.Debug("session opened",
		"driver", cfg.Store.Driver,
		"sinks", len(sinks),
		"require_tester", cfg.Ledger.RequireTester,
	)
	return s, nil
}

// requireSQLite fails for drivers without a journal.
func (s *session) requireSQLite(f *OutputFormatter, command string) error {
	if s.sqlite != nil {
		return nil
	}
	msg := fmt.Sprintf("%s needs the sqlite driver (have %s)", command, s.cfg.Store.Driver)
	_ = f.Error(ErrCodeUnsupported, msg, nil)
	return &ExitError{Code: ExitCommandError, Message: msg, Reported: true}
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
