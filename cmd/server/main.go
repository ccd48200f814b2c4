package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/database"
	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/payment"
	"github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/router"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logrus.WithField("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}

	tours := repository.NewTourRepo(db)
	bookings := repository.NewBookingRepo(db)
	gallery := repository.NewGalleryRepo(db)
	testimonials := repository.NewTestimonialRepo(db)
	contacts := repository.NewContactRepo(db)
	newsletter := repository.NewNewsletterRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.WithError(err).Fatal("seeding admin failed")
		}
		if created {
			log.WithField("email", cfg.AdminEmail).Info("admin account created")
		}
	}
	if n, err := tokens.PurgeExpired(ctx); err != nil {
		log.WithError(err).Warn("purging refresh tokens failed")
	} else if n > 0 {
		log.WithField("removed", n).Info("expired refresh tokens purged")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	publisher := queue.NewPublisher(cfg.AMQPURL)
	defer publisher.Close()

	consumer, err := queue.NewConsumer(cfg.AMQPURL, cfg.BookingLogPath)
	if err != nil {
		log.WithError(err).Fatal("booking log unavailable")
	}
	defer consumer.Close()

	gateway := payment.NewClient(cfg.Payment)
	svc := booking.NewService(tours, bookings, gateway, publisher, cfg.Payment.Currency)

	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		DB:        db,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Public:    handler.NewPublicHandler(tours, gallery, testimonials),
		Forms:     handler.NewFormHandler(testimonials, contacts, newsletter),
		Booking:   handler.NewBookingHandler(svc),
		Admin: &handler.AdminHandler{
			Tours:        tours,
			Bookings:     bookings,
			Status:       svc,
			Gallery:      gallery,
			Testimonials: testimonials,
			Contacts:     contacts,
			Newsletter:   newsletter,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped with error")
		return
	}
	log.Info("server stopped")
}
