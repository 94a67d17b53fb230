package main // Entry point package

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/rental-listings/internal/auth"
	"github.com/iliyamo/rental-listings/internal/booking"
	"github.com/iliyamo/rental-listings/internal/config"
	"github.com/iliyamo/rental-listings/internal/database"
	"github.com/iliyamo/rental-listings/internal/editor"
	"github.com/iliyamo/rental-listings/internal/handler"
	"github.com/iliyamo/rental-listings/internal/identity"
	"github.com/iliyamo/rental-listings/internal/middleware"
	"github.com/iliyamo/rental-listings/internal/mirror"
	"github.com/iliyamo/rental-listings/internal/queue"
	"github.com/iliyamo/rental-listings/internal/repository"
	"github.com/iliyamo/rental-listings/internal/router"
	"github.com/iliyamo/rental-listings/internal/service"
	"github.com/iliyamo/rental-listings/internal/session"
)

func main() {
	flag.Parse() // glog flags: -logtostderr, -v, ...
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		glog.Warningf("%v: store polls and rate limiting is off", err)
	} else {
		defer rdb.Close()
	}

	store, closeStore, err := database.OpenStore(ctx, cfg, rdb)
	if err != nil {
		glog.Exitf("store: %v", err)
	}
	defer closeStore()

	operator, err := auth.NewStaticAuthenticator(cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		glog.Exitf("%v", err)
	}

	// one identity session for the process; the mirror follows it
	boot := identity.NewBootstrap(identity.TokenProvider{Token: cfg.IdentityToken, Secret: cfg.IdentitySecret})
	m := mirror.New(store, cfg.AppID)
	detach := m.Attach(boot)
	defer m.Close()
	defer detach()
	go boot.Start(ctx)

	listings := repository.NewListingRepo(store, cfg.AppID)
	bookings := repository.NewBookingRepo(store, cfg.AppID)
	neighborhoods := repository.NewNeighborhoodRepo(store, cfg.AppID)
	publisher := service.NewPublisher(cfg.AMQPURL)

	sessions := session.NewStore(ctx, cfg.ClientSessionTTL, func(id string) *session.Client {
		return &session.Client{
			ID:   id,
			Gate: &auth.Gate{},
			Booking: booking.New(bookings, boot.Session, booking.Options{
				ResetDelay: cfg.BookingResetDelay,
				Notifier:   publisher,
			}),
			Editor: editor.New(listings, editor.Options{MaxImageBytes: int64(cfg.MaxImageBytes)}),
		}
	})
	defer sessions.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit("64M"))

	router.RegisterRoutes(e)
	router.RegisterPublic(e,
		&handler.PublicHandler{Identity: boot, Catalog: m},
		handler.NewLiveHandler(m, cfg.CORSOrigins))
	router.RegisterClient(e, sessions,
		&handler.BookingHandler{Catalog: m},
		&handler.ViewHandler{Auth: operator},
		middleware.NewTokenBucket(cfg.RateLimit, rdb))
	router.RegisterOperator(e, sessions,
		&handler.AdminHandler{Catalog: m, Listings: listings, Bookings: bookings, Neighborhoods: neighborhoods},
		&handler.EditorHandler{Catalog: m})

	if cfg.BookingLogConsumer {
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.AMQPURL); err != nil && !errors.Is(err, context.Canceled) {
				glog.Errorf("booking-consumer: %v", err)
			}
		}()
	}

	cors, err := newCORS(cfg.CORSOrigins)
	if err != nil {
		glog.Exitf("cors: %v", err)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors(e),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Errorf("shutdown: %v", err)
		}
	}()

	glog.Infof("listening on %s (env=%s, store=%s, app=%s)", srv.Addr, cfg.Env, cfg.StoreDriver, cfg.AppID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Errorf("server: %v", err)
	}
}
