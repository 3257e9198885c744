package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"market-overlay/backend-go/internal/cache"
	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/handlers"
	internalhttp "market-overlay/backend-go/internal/http"
	"market-overlay/backend-go/internal/logging"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/services"
	"market-overlay/backend-go/internal/stale"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"../.env",
		"../.env.local",
		"backend-go/.env",
		"backend-go/.env.local",
	)
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}
	log := logging.New(cfg)
	defer func() { _ = log.Sync() }()

	boards, err := services.LoadBoards(cfg.BoardsFile)
	if err != nil {
		log.Fatal("boards", zap.Error(err))
	}

	store := cache.New(cfg.RedisURL, log)
	clock := stale.SystemClock{}
	opts := stale.Options{
		Clock:          clock,
		Mirror:         store,
		MirrorTTL:      cfg.MirrorTTL,
		SingleFlight:   cfg.SingleFlight,
		RefreshTimeout: 2 * cfg.RequestTimeout,
		Logger:         log,
	}
	boardSlot := stale.New[models.Board]("board", opts)
	calendarSlot := stale.New[models.Calendar]("calendar", opts)
	digestSlot := stale.New[models.Digest]("digest", opts)
	newsSlot := stale.New[models.News]("news", opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boardSlot.Restore(ctx)
	calendarSlot.Restore(ctx)
	digestSlot.Restore(ctx)
	newsSlot.Restore(ctx)

	hc := services.NewHTTPClient(cfg.RequestTimeout)
	feed := services.NewFeedClient(cfg, hc)
	svc := handlers.Services{
		Board:    services.NewBoardService(cfg, boards, services.NewQuotesClient(cfg, hc), boardSlot, clock, log),
		Calendar: services.NewCalendarService(cfg, services.NewCalendarClient(cfg, hc, clock), calendarSlot, clock, log),
		Digest:   services.NewDigestService(cfg, feed, services.NewSummarizerClient(cfg, hc), digestSlot, clock, log),
		News:     services.NewNewsService(cfg, feed, newsSlot, clock, log),
		Slots:    []handlers.SlotInfo{boardSlot, calendarSlot, digestSlot, newsSlot},
	}
	api := handlers.New(cfg, store, svc, clock, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           internalhttp.NewRouter(cfg, api, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("market overlay listening",
		zap.String("addr", srv.Addr),
		zap.String("cache", store.Backend()),
		zap.Bool("quotes_online", cfg.QuotesOnline()),
		zap.Bool("summary_online", cfg.SummaryOnline()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("listen", zap.Error(err))
	}
	<-drained
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
