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
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/codefionn/calculate42/internal/cache"
	"github.com/codefionn/calculate42/internal/config"
	"github.com/codefionn/calculate42/internal/history"
	"github.com/codefionn/calculate42/internal/lockfile"
	"github.com/codefionn/calculate42/internal/logger"
	"github.com/codefionn/calculate42/internal/repl"
	"github.com/codefionn/calculate42/internal/service"
	"github.com/codefionn/calculate42/internal/web"
)

// errEvaluationFailed makes the process exit 1 after the reply was printed
var errEvaluationFailed = errors.New("evaluation failed")

type options struct {
	serve      bool
	addr       string
	history    int
	noHistory  bool
	configPath string
	evaluate   bool
	expression string
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errEvaluationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() (err error) {
	opts, parseErr := parseArgs(os.Args[1:], os.Stderr)
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return nil
		}
		return parseErr
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)

	if initErr := logger.Init(cfg.Level(), cfg.LogPath); initErr != nil {
		return fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	defer func() {
		if err != nil && !errors.Is(err, errEvaluationFailed) {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	logger.Info("calculate42 starting")
	logger.Debug("Configuration loaded: config=%s log_level=%s history=%t cache_entries=%d",
		cfgPath, cfg.LogLevel, cfg.HistoryEnabled, cfg.CacheEntries)

	var store *history.Store
	if cfg.HistoryEnabled {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			if opts.history > 0 {
				return err
			}
			// evaluating without a history beats not evaluating at all
			logger.Warn("History disabled: %v", err)
			store, err = nil, nil
		} else {
			logger.Debug("Recording history in %s", store.Path())
			defer store.Close()
		}
	}

	if opts.history > 0 {
		if store == nil {
			return fmt.Errorf("history is disabled")
		}
		return printHistory(context.Background(), store, opts.history, os.Stdout)
	}

	svcOpts := service.Options{
		Cache:          cache.New(cfg.CacheEntries),
		MaxInputLength: cfg.MaxInputLength,
	}
	if store != nil {
		svcOpts.History = store
	}
	calc := service.New(svcOpts)

	switch {
	case opts.serve:
		return runServer(calc, store, cfg, cfgPath)
	case opts.evaluate:
		return evaluateOnce(calc, opts.expression, os.Stdout)
	default:
		return runREPL(calc, cfg, os.Stdin, os.Stdout)
	}
}

func parseArgs(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("calculate42", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		opts     options
		showHelp bool
	)

	fs.BoolVar(&opts.serve, "serve", false, "Serve the calculator over HTTP and websockets")
	fs.StringVar(&opts.addr, "addr", "", "Listen address for -serve (overrides listen_addr)")
	fs.IntVar(&opts.history, "history", 0, "Print the last N evaluations and exit")
	fs.BoolVar(&opts.noHistory, "no-history", false, "Do not record evaluations")
	fs.StringVar(&opts.configPath, "config", "", "Path to the config file")
	fs.BoolVar(&showHelp, "help", false, "Show usage information")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: calculate42 [options] [expression]\n\n")
		fmt.Fprintln(fs.Output(), "Without an expression, expressions are read from stdin one per line.")
		fmt.Fprintln(fs.Output(), "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if showHelp {
		fs.Usage()
		return nil, flag.ErrHelp
	}
	if opts.history < 0 {
		return nil, fmt.Errorf("-history must not be negative")
	}

	// blank arguments still evaluate, and fail as not an expression
	opts.evaluate = fs.NArg() > 0
	opts.expression = strings.Join(fs.Args(), " ")

	modes := 0
	for _, set := range []bool{opts.serve, opts.history > 0, opts.evaluate} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return nil, fmt.Errorf("-serve, -history and an expression are mutually exclusive")
	}
	if opts.history > 0 && opts.noHistory {
		return nil, fmt.Errorf("-history cannot be combined with -no-history")
	}
	if opts.addr != "" && !opts.serve {
		return nil, fmt.Errorf("-addr requires -serve")
	}

	return &opts, nil
}

// applyOverrides layers environment variables and flags over the file
func applyOverrides(cfg *config.Config, opts *options) {
	applyEnv(cfg)
	if opts.noHistory {
		cfg.HistoryEnabled = false
	}
	if opts.addr != "" {
		cfg.ListenAddr = opts.addr
	}
}

func applyEnv(cfg *config.Config) {
	if envLevel := strings.TrimSpace(os.Getenv("CALCULATE42_LOG_LEVEL")); envLevel != "" {
		cfg.LogLevel = envLevel
	}
	if envPath := strings.TrimSpace(os.Getenv("CALCULATE42_LOG_PATH")); envPath != "" {
		cfg.LogPath = envPath
	}
	if envPath := strings.TrimSpace(os.Getenv("CALCULATE42_HISTORY_PATH")); envPath != "" {
		cfg.HistoryPath = envPath
	}
}

// reloadLogLevel applies the log level of a rewritten config file. The
// environment keeps precedence over the file, as it does at startup.
func reloadLogLevel(cfg, next *config.Config) bool {
	applyEnv(next)
	if next.LogLevel == cfg.LogLevel {
		return false
	}
	logger.Info("Log level changed from %s to %s", cfg.LogLevel, next.LogLevel)
	logger.Global().SetLevel(next.Level())
	cfg.LogLevel = next.LogLevel
	return true
}

func evaluateOnce(calc *service.Calculator, expr string, out io.Writer) error {
	res := calc.Evaluate(context.Background(), history.SourceCLI, expr)
	fmt.Fprintln(out, res.Reply())
	if !res.OK() {
		return errEvaluationFailed
	}
	return nil
}

func runREPL(calc *service.Calculator, cfg *config.Config, in *os.File, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt := ""
	if term.IsTerminal(int(in.Fd())) {
		prompt = cfg.Prompt
	}

	return repl.New(calc, in, out, repl.Options{Prompt: prompt}).Run(ctx)
}

func runServer(calc *service.Calculator, store *history.Store, cfg *config.Config, cfgPath string) error {
	lock := lockfile.New(cfg.LockPath)
	if err := lock.TryAcquire(cfg.ListenAddr); err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("%v", releaseErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := web.NewServer(calc, store, cfg)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return config.Watch(ctx, cfgPath, func(next *config.Config) {
			reloadLogLevel(cfg, next)
		})
	})

	fmt.Fprintf(os.Stderr, "Listening on http://%s\n", cfg.ListenAddr)
	return g.Wait()
}

func printHistory(ctx context.Context, store *history.Store, limit int, out io.Writer) error {
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	// oldest first, like a shell history
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(out, "%s  %-5s %s = %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Source, e.Expression, e.Reply)
	}
	return nil
}
