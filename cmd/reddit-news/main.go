package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dapr/kit/logger"
	"golang.org/x/sync/errgroup"

	"github.com/za419/reddit-news/pkg/redditnews/config"
	"github.com/za419/reddit-news/pkg/redditnews/logging"
	"github.com/za419/reddit-news/pkg/redditnews/metrics"
	"github.com/za419/reddit-news/pkg/redditnews/reddit"
	"github.com/za419/reddit-news/pkg/redditnews/server"
)

var log = logger.NewLogger(logging.ScopeMain)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := config.ParseArgs(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	defaults := config.Defaults
	if args.DefaultConfigPath != "" {
		if defaults, err = os.ReadFile(args.DefaultConfigPath); err != nil {
			fmt.Fprintf(os.Stderr, "Could not read default configuration %s: %v\n", args.DefaultConfigPath, err)
			return 1
		}
	}
	if err := config.VerifyIntegrity(defaults); err != nil {
		var ie *config.IntegrityError
		if errors.As(err, &ie) {
			fmt.Fprintln(os.Stderr, "The default configuration file has been modified. Place overrides in config.ini instead.")
			fmt.Fprintf(os.Stderr, "canonical = '%s'\n", ie.Got)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}

	cfg, err := config.Load(defaults, args.ConfigPath, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sink, err := logging.Setup(cfg.Log, cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sink.Close()

	log.Infof("Starting reddit-news on port %d serving %s", cfg.Port, cfg.Root)
	if cfg.CachingEnabled() {
		log.Infof("Caching enabled, max-age %s", cfg.Caching)
	}

	m := metrics.New()
	srv, err := server.New(cfg, reddit.NewClient(reddit.DefaultConfig()), server.WithMetrics(m))
	if err != nil {
		log.Errorf("Could not create server: %v", err)
		return 1
	}
	if err := srv.Listen(); err != nil {
		log.Errorf("Could not listen: %v", err)
		srv.Close()
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if cfg.MetricsPort > 0 {
		g.Go(func() error {
			return m.Serve(ctx, cfg.MetricsPort)
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorf("Shutting down: %v", err)
		return 1
	}
	log.Info("Shut down cleanly")
	return 0
}
