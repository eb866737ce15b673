package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onlineticket/internal/auth"
	intconfig "onlineticket/internal/config"
	intdb "onlineticket/internal/db"
	router "onlineticket/internal/http"
	"onlineticket/internal/http/handlers"
	"onlineticket/internal/lock"
	"onlineticket/internal/notify"
	"onlineticket/internal/payment"
	"onlineticket/internal/repositories"
	"onlineticket/internal/repositories/memstore"
	"onlineticket/internal/repositories/mongostore"
	"onlineticket/internal/services"
	"onlineticket/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	utils.SetupLogger(env.LogLevel, env.LogFormat, os.Stdout)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	if err := run(env); err != nil {
		utils.Log.WithError(err).Fatal("server stopped with error")
	}
}

func run(env intconfig.Env) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, env)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			utils.Log.WithError(err).Warn("closing store")
		}
	}()

	verifier, err := auth.NewVerifierFromFile(auth.Config{
		Secret:   env.JWTSecret,
		Issuer:   env.JWTIssuer,
		Audience: env.JWTAudience,
		Leeway:   30 * time.Second,
	}, env.JWTPublicKeyFile)
	if err != nil {
		return err
	}

	var locker services.Locker = lock.NewLocal()
	if env.RedisURL != "" {
		rdb, err := intconfig.ConnectRedis(ctx, env.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb)
		utils.LogEvent("", "startup", "locker", "using redis locks")
	}

	var notifier services.Notifier = notify.Nop{}
	if env.PubNubPublishKey != "" && env.PubNubSubscribeKey != "" {
		notifier = notify.Realtime{Pub: notify.NewPubNub(env.PubNubPublishKey, env.PubNubSubscribeKey, env.PubNubUserID)}
		utils.LogEvent("", "startup", "notifier", "publishing booking events to pubnub")
	}

	var provider services.PaymentProvider
	if env.StripeSecretKey != "" {
		provider = payment.NewStripe(payment.StripeConfig{
			SecretKey:  env.StripeSecretKey,
			SuccessURL: env.CheckoutSuccessURL,
			CancelURL:  env.CheckoutCancelURL,
		})
	} else {
		utils.Log.Warn("STRIPE_SECRET_KEY not set, payment endpoints are disabled")
	}

	handler := newHandler(env, store, locker, notifier, provider)
	r := router.NewRouter(handler, router.Options{
		Verifier:       verifier,
		Guard:          services.RoleGuard{Users: store.Users()},
		AllowedOrigins: env.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogEvent("", "startup", "listen", "server listening on "+env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogEvent("", "shutdown", "drain", "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	utils.LogEvent("", "shutdown", "done", "server stopped cleanly")
	return nil
}

func newHandler(env intconfig.Env, store services.Store, locker services.Locker, notifier services.Notifier, provider services.PaymentProvider) handlers.Handler {
	loc := env.Location()
	return handlers.Handler{
		Tickets: services.TicketService{
			Tickets:        store.Tickets(),
			Locker:         locker,
			AdvertiseLimit: env.AdvertiseLimit,
			Location:       loc,
		},
		Bookings: services.BookingService{
			Tickets:           store.Tickets(),
			Bookings:          store.Bookings(),
			Transactions:      store.Transactions(),
			Notifier:          notifier,
			Location:          loc,
			Currency:          env.PaymentCurrency,
			RequireAcceptance: env.BookingRequireAcceptance,
		},
		Payments: services.PaymentService{
			Bookings:          store.Bookings(),
			Provider:          provider,
			Currency:          env.PaymentCurrency,
			RequireAcceptance: env.BookingRequireAcceptance,
		},
		Docs: services.DocsService{
			Bookings:     store.Bookings(),
			Transactions: store.Transactions(),
			Currency:     env.PaymentCurrency,
		},
		Users: services.UserService{
			Users:   store.Users(),
			Tickets: store.Tickets(),
		},
		Store: store,
	}
}

func openStore(ctx context.Context, env intconfig.Env) (services.Store, error) {
	switch env.StoreDriver {
	case "memory":
		utils.Log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "mongo":
		s, err := mongostore.Connect(ctx, env.MongoURI, env.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, err
		}
		utils.LogEvent("", "startup", "store", "connected to mongodb "+env.MongoDB)
		return s, nil
	case "mysql", "":
		db, err := intconfig.ConnectDB(ctx, env.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if env.DBMigrate {
			if err := intdb.Migrate(ctx, db, utils.Log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		utils.LogEvent("", "startup", "store", "connected to mysql")
		return repositories.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", env.StoreDriver)
	}
}
