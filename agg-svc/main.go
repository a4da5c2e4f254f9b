package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "happy-hearts-pos/agg-svc/internal/api/http"
	"happy-hearts-pos/agg-svc/internal/service"
	"happy-hearts-pos/agg-svc/internal/storage"
	"happy-hearts-pos/config"
	"happy-hearts-pos/logging"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	reader := config.NewKafkaReader(cfg.OrdersTopic, "agg-svc-consumer")
	defer reader.Close()

	store := storage.NewSalesStore(rdb, cfg.Namespace+"sales:", 0, time.Local)
	go service.NewConsumer(reader, store, logger).Start(ctx)

	r := mux.NewRouter()
	httpapi.NewHandler(store).RegisterRoutes(r)

	log.Printf("Aggregation Service starting on %s", cfg.AggHTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.AggHTTPAddr, r))
}
