package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/contact"
	"github.com/fjod/go_cart/storefront/internal/events"
	grpcsrv "github.com/fjod/go_cart/storefront/internal/grpc"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/slides"
)

const (
	cartSweepInterval    = 5 * time.Minute
	cartIdleTimeout      = 30 * time.Minute
	sessionSweepInterval = 10 * time.Minute
	healthProbeInterval  = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			log.Warn("error closing backends", zap.Error(err))
		}
	}()

	store := b.kvStore(cfg)
	products := newCatalog(cfg, b, store, log)
	heroSlides := slides.NewService(b.slideBackend(cfg, store), log)
	carts := cart.NewManager(store, log)
	log.Info("catalog ready",
		zap.String("backend", products.BackendName()),
		zap.Bool("read_only", products.ReadOnly()),
		zap.String("store", cfg.Store.Backend))

	var publisher checkout.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p := events.NewPublisher(events.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...))
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn("error closing kafka writer", zap.Error(err))
			}
		}()
		publisher = p

		groupID := cart.ReplicaGroupID(cfg.Kafka.GroupID, replicaName())
		poller := cart.NewPoller(carts, cart.NewKafkaReader(cfg.Kafka.Topic, groupID, cfg.Kafka.Brokers...), log)
		defer poller.Close()
		go poller.Run(ctx)
		log.Info("kafka enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group_id", groupID))
	}

	var relay contact.Relay
	if cfg.Contact.RelayURL != "" {
		relay = contact.NewHTTPRelay(cfg.Contact.RelayURL, cfg.Contact.Timeout, log)
	}

	users := make(map[string]string, len(cfg.Admin.Users))
	for _, u := range cfg.Admin.Users {
		users[u.Email] = u.PasswordHash
	}
	sessions := session.NewManager(users, cfg.Admin.SessionTTL, log, session.WithAccountStore(store))
	if len(users) == 0 {
		log.Warn("no admin users configured; only registered admins can log in")
	}

	checkoutService := checkout.NewService(b.orderRepository(cfg), carts, products, publisher, log)
	contactService := contact.NewService(b.contactStore(cfg), relay, log)
	adminService := admin.NewService(products, heroSlides, checkoutService, sessions)

	timeout := cfg.HTTP.RequestTimeout
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     timeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
	}, h.Handlers{
		Products:  h.NewProductHandler(products, heroSlides),
		Cart:      h.NewCartHandler(carts, products, timeout, log),
		Checkout:  h.NewCheckoutHandler(checkoutService, timeout, log),
		Contact:   h.NewContactHandler(contactService, timeout, log),
		Assistant: h.NewAssistantHandler(carts, products, timeout, log),
		Admin:     h.NewAdminHandler(adminService, sessions, timeout, log),
		Sessions:  sessions,
	}, log)

	go carts.RunSweeper(ctx, cartSweepInterval, cartIdleTimeout)
	go sweepSessions(ctx, sessions, log)

	healthServer := grpcsrv.NewServer(log, b.checks...)
	go healthServer.Watch(ctx, healthProbeInterval)
	go func() {
		if err := healthServer.Serve(cfg.GRPC.Port); err != nil {
			log.Error("grpc server error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		healthServer.GracefulStop()
		return err
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	healthServer.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

// replicaName identifies this process among the replicas sharing the kafka
// topic. Hostnames are stable across restarts of the same pod.
func replicaName() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return uuid.NewString()
}

func sweepSessions(ctx context.Context, sessions *session.Manager, log *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				log.Debug("expired admin sessions removed", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
