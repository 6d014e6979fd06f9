package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/config"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/logger"
	"sweetbox/pkg/models"
	"sweetbox/pkg/syncer"
)

// session is one loaded working copy: engine, coordinator and the config they came from.
type session struct {
	cfg   *config.ClientConfig
	eng   *engine.Engine
	coord *syncer.Coordinator
	cache *syncer.Cache
	log   *zap.Logger
	out   *OutputFormatter
}

func (o *RootOptions) loadConfig() (*config.ClientConfig, *zap.Logger, error) {
	cfg, err := config.LoadClient(o.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	return cfg, log, nil
}

func (o *RootOptions) remote(cfg *config.ClientConfig, cache *syncer.Cache) syncer.Remote {
	if o.Remote != nil {
		return o.Remote
	}
	token := cfg.Token
	if token == "" {
		if entry, err := cache.Load(); err == nil {
			token = entry.Token
		}
	}
	return syncer.NewClient(cfg.APIURL, syncer.WithTimeout(cfg.Timeout), syncer.WithToken(token))
}

// open loads the working copy. The caller must close it.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid timezone", err)
	}
	clk := o.Clock
	if clk == nil {
		clk = clock.Real()
	}

	cache := syncer.NewCache(cfg.CachePath)
	eng := engine.New(
		engine.WithClock(clk),
		engine.WithLocation(loc),
		engine.WithLogger(log.Named("engine")),
	)
	stderr := cmd.ErrOrStderr()
	coord := syncer.New(eng, o.remote(cfg, cache),
		syncer.WithCache(cache),
		syncer.WithClock(clk),
		syncer.WithDebounce(cfg.Debounce),
		syncer.WithLogger(log.Named("sync")),
		syncer.OnWarning(func(err error) { warnf(stderr, "%v", err) }),
	)

	if err := coord.Load(cmd.Context()); err != nil {
		return nil, WrapExitError(ExitCommandError, "could not load state", err)
	}

	s := &session{cfg: cfg, eng: eng, coord: coord, cache: cache, log: log, out: o.output(cmd)}
	s.out.Debugf("loaded %d users, %d orders, %d items", len(eng.Users()), len(eng.Orders.Active()), len(eng.Inventory.Items()))
	return s, nil
}

// close flushes what the command changed.
func (s *session) close(ctx context.Context) error {
	defer func() { _ = s.log.Sync() }()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.coord.Close(ctx); err != nil {
		return WrapExitError(ExitFailure, "changes were not saved to the backend", err)
	}
	return nil
}

// today is the business day of the engine clock.
func (s *session) today() models.Date {
	return models.DateOf(s.eng.Now().In(s.eng.Location()))
}

// actor names who made a change: the flag, the config, then nobody.
func (s *session) actor(flag string) string {
	if flag != "" {
		return flag
	}
	return s.cfg.Actor
}

// run opens a session, runs fn and always closes the session.
func (o *RootOptions) run(cmd *cobra.Command, fn func(*session) error) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	runErr := fn(s)
	closeErr := s.close(cmd.Context())
	if runErr != nil {
		if closeErr != nil {
			warnf(cmd.ErrOrStderr(), "%v", closeErr)
		}
		return runErr
	}
	return closeErr
}

// reportShortages prints stock that ran out while the change went ahead.
func (s *session) reportShortages(shortages []*engine.QuantityShortage) {
	for _, sh := range shortages {
		warnf(s.out.ErrWriter, "%v; stock clamped to zero", sh)
	}
}

func isConfirmation(err error) bool {
	return errors.Is(err, engine.ErrConfirmationRequired)
}
