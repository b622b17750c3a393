package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tobywinn/giftlist/internal/config"
	"github.com/tobywinn/giftlist/internal/es"
	"github.com/tobywinn/giftlist/internal/handlers"
	"github.com/tobywinn/giftlist/internal/logging"
	auth "github.com/tobywinn/giftlist/internal/middleware/auth"
	"github.com/tobywinn/giftlist/internal/mykafka"
	"github.com/tobywinn/giftlist/internal/service/search"
	"github.com/tobywinn/giftlist/internal/token"
	httpserver "github.com/tobywinn/giftlist/internal/transport/http"
	"github.com/tobywinn/giftlist/pkg/db"
)

const searchIndex = "items"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	log := logging.New(configuration.LogLevel)
	ctx := logging.IntoContext(context.Background(), log)

	gdb, err := db.Open(ctx, configuration)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var producer *mykafka.Producer
	if configuration.Kafka != "" {
		producer = mykafka.NewProducer([]string{configuration.Kafka})
	}

	tokens := &token.Service{DB: gdb, Duration: configuration.SessionTTL}

	deps := httpserver.Deps{
		DB:          gdb,
		AuthHandler: &handlers.AuthHandler{DB: gdb, Tokens: tokens, Producer: producer},
		ItemHandler: &handlers.ItemHandler{DB: gdb, Producer: producer},
		Gate:        &auth.Gate{Tokens: tokens},
		AssetsDir:   configuration.AssetsDir,
	}

	if configuration.ESURL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Error("elasticsearch init failed", "error", err)
			os.Exit(1)
		}
		deps.SearchHandler = handlers.NewSearchHandler(esClient, searchIndex)
		deps.ItemHandler.Indexer = &search.Indexer{ES: esClient, Index: searchIndex}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.AppAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
		}
	}()
	log.Info("listening", "addr", configuration.AppAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("db close error", "error", err)
		}
	} else {
		log.Error("db unwrap error", "error", err)
	}

	if err := producer.Close(); err != nil {
		log.Error("kafka close error", "error", err)
	}

	log.Info("shutdown complete")
}
