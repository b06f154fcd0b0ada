package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/auth"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/catalog"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/config"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/remote"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository/memory"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/session"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/httpclient"
)

// shopper holds the collaborators every command works against.
type shopper struct {
	manager *session.Manager
	catalog catalog.Source
	orders  *service.OrderService
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
}

// newShopper wires the session manager and catalog. Without an API URL the
// session runs against an in-memory backend and the fixture catalog.
func newShopper(cfg *config.ClientConfig, logger *slog.Logger, out, errOut io.Writer) (*shopper, error) {
	var (
		carts     session.CartBackend
		wishlists session.WishlistBackend
		identity  session.IdentityProvider = session.StaticIdentity(cfg.UserID)
		products  catalog.Source           = catalog.NewStatic(catalog.Fixtures()...)
	)

	if cfg.Offline() {
		mem := session.NewMemoryBackend()
		carts, wishlists = mem, mem
	} else {
		token := func() string { return cfg.Token }
		client := remote.New(cfg.APIURL, cfg.HTTPClient(), cfg.Breaker("storefront"), logger, remote.WithToken(token))
		carts, wishlists = client, client
		if cfg.Token != "" {
			identity = auth.NewTokenIdentity(token)
		}
	}

	if cfg.CatalogURL != "" {
		doer := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTPClient()), cfg.Breaker("catalog"), logger)
		src, err := catalog.NewHTTPSource(cfg.CatalogURL, doer, cfg.CatalogCacheSize, logger)
		if err != nil {
			return nil, err
		}
		products = src
	}

	notify := session.NotifierFunc(func(_ context.Context, n session.Notice) {
		retry := ""
		if n.Retryable {
			retry = " (try again)"
		}
		fmt.Fprintf(errOut, "%s: %s%s\n", n.Kind, n.Message, retry)
	})

	return &shopper{
		manager: session.NewManager(identity, carts, wishlists,
			session.WithLogger(logger),
			session.WithNotifier(notify),
		),
		catalog: products,
		out:     out,
		errOut:  errOut,
		logger:  logger,
	}, nil
}

// session returns the signed-in shopper's session, loading it on first use.
func (s *shopper) session(ctx context.Context) (*session.Session, error) {
	sess, err := s.manager.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return sess, nil
}

// orderBook returns the order service and the signed-in user. The demo order
// history is seeded for that user on first use.
func (s *shopper) orderBook(ctx context.Context) (*service.OrderService, string, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, "", err
	}
	if s.orders == nil {
		repo := memory.NewOrderRepository(memory.SampleOrders(sess.UserID, time.Now())...)
		s.orders = service.NewOrderService(repo, s.logger)
	}
	return s.orders, sess.UserID, nil
}

// Close ends the session.
func (s *shopper) Close() {
	s.manager.Logout()
}
