package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
	"github.com/wadjakorntonsri/go-shortlink/pkg/lock"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

// App holds what the commands share. Connections are opened on first use.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	out    io.Writer
	errOut io.Writer
	locks  lock.Factory
	runner ProcessRunner

	conn    *database.Conn
	closers []func() error
}

type Option func(*App)

func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) { a.out, a.errOut = out, errOut }
}

func WithLockFactory(f lock.Factory) Option {
	return func(a *App) { a.locks = f }
}

func WithProcessRunner(r ProcessRunner) Option {
	return func(a *App) { a.runner = r }
}

func NewApp(cfg *config.Config, log logger.Logger, opts ...Option) *App {
	a := &App{
		cfg:    cfg,
		logger: log,
		out:    os.Stdout,
		errOut: os.Stderr,
		runner: SelfRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.locks == nil {
		a.locks = a.newLockFactory()
	}
	return a
}

// newLockFactory uses Redis when configured so locks hold across hosts.
func (a *App) newLockFactory() lock.Factory {
	if a.cfg.Redis.Addr == "" {
		return lock.NewMachineFactory(nil, 0)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	return lock.NewRedisFactory(client, 0)
}

func (a *App) database() (*database.Conn, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := database.Open(a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.conn = conn
	a.closers = append(a.closers, conn.Close)
	return conn, nil
}

func (a *App) lockedRunner() *LockedRunner {
	return NewLockedRunner(a.locks, a.cfg.Lock.TTL, a.out, a.logger)
}

// Run executes the command line args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		var exitErr *ExitCodeError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintln(a.errOut, "Error:", err)
		}
	}
	return ExitCode(err)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", logger.Err(err))
		}
	}
	a.closers = nil
}

// Execute runs the CLI against the process environment.
func Execute() int {
	cfg := config.Load()
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, OutputPaths: []string{"stderr"}})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitFailure
	}
	defer func() { _ = log.Sync() }()

	app := NewApp(cfg, log)
	defer app.Close()

	return app.Run(context.Background(), os.Args[1:])
}
