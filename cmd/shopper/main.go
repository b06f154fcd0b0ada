// Command shopper is a headless storefront client. It holds one shopper
// session and drives its cart and wishlist from the command line, next to a
// demo order history with the admin status workflow.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/config"
	pkgconfig "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/config"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter("shopper", cfg.LogLevel, os.Stderr)

	s, err := newShopper(cfg, log, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(s).ExecuteContext(ctx)
}
