package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"happy-hearts-pos/config"
	"happy-hearts-pos/logging"
	httpapi "happy-hearts-pos/pos-svc/internal/api/http"
	"happy-hearts-pos/pos-svc/internal/domain"
	"happy-hearts-pos/pos-svc/internal/service"
	"happy-hearts-pos/pos-svc/internal/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const changeSubject = "happyhearts.changes"

// backend is the store and change feed every service in this process
// shares, plus whatever must be closed on shutdown.
type backend struct {
	store    storage.Store
	notifier storage.Notifier
	closers  []func() error
}

func (b *backend) Close() {
	for _, c := range b.closers {
		if err := c(); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
}

func openBackend(ctx context.Context, cfg config.Config, tabID string, log *slog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Storage {
	case config.StorageMemory:
		mem := storage.NewMemoryBackend()
		b.store, b.notifier = mem, mem

	case config.StorageRedis:
		rdb := config.MustInitRedis()
		b.store = storage.NewRedisStore(rdb, cfg.Namespace)
		b.notifier = storage.NewRedisNotifier(rdb, cfg.Namespace+"changes", log)
		b.closers = append(b.closers, rdb.Close)

	case config.StorageSQLite, config.StoragePostgres:
		var db *sqlx.DB
		if cfg.Storage == config.StoragePostgres {
			db = config.MustInitPostgres()
		} else {
			db = config.MustInitSQLite(cfg.SQLitePath)
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store := storage.NewSQLStore(db, tabID)
		b.store = store
		b.notifier = storage.NewSQLPoller(store, cfg.PollInterval, log)
		b.closers = append(b.closers, db.Close)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	switch cfg.Notify {
	case config.NotifyAuto, "":
	case config.NotifyNATS:
		conn := config.MustConnectNATS(cfg.NATSURL)
		notifier := storage.NewNATSNotifier(conn, changeSubject, log)
		b.notifier = notifier
		b.closers = append(b.closers, notifier.Close)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notify)
	}

	return b, nil
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tabID := uuid.NewString()
	b, err := openBackend(ctx, cfg, tabID, logger)
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}
	defer b.Close()

	origin := storage.NewOrigin(tabID, b.store, b.notifier, logger)
	logger.Info("storage ready", "backend", cfg.Storage, "notify", cfg.Notify, "tab", tabID)

	fees := service.FeeSchedule{
		Store:        domain.Coordinate{Latitude: cfg.StoreLat, Longitude: cfg.StoreLng},
		BaseFee:      cfg.BaseFee,
		FreeRadiusKm: cfg.FreeRadiusKm,
		PerKm:        cfg.PerKm,
	}

	catalog := service.NewCatalog(origin, logger)
	ledger := service.NewLedger(origin, logger)
	allocator := service.NewAllocator(origin, logger)
	identity := service.NewIdentity(origin, logger)
	attendance := service.NewAttendance(origin, cfg.DefaultHourRate, logger)

	var publisher service.EventPublisher
	if cfg.KafkaBroker != "" {
		writer := config.NewKafkaWriter(cfg.OrdersTopic)
		defer writer.Close()
		kafkaPublisher := storage.NewKafkaPublisher(writer)
		publisher = kafkaPublisher
		stopForwarding := service.ForwardStatusChanges(ctx, ledger, kafkaPublisher, logger)
		defer stopForwarding()
	}
	checkout := service.NewCheckout(allocator, ledger, fees, publisher, logger)

	if _, err := identity.EnsureAdmin(ctx); err != nil {
		logger.Warn("admin credential not provisioned", "err", err)
	}

	queue := service.NewQueueView(ledger, service.LogAlerter{Log: logger}, time.Local, logger)
	if err := queue.Start(ctx); err != nil {
		logger.Warn("queue view not started", "err", err)
	}

	kiosk := service.NewKiosk(catalog, checkout, cfg.KioskIdle, logger)
	go kiosk.Run(ctx, time.Second)

	handler := httpapi.NewHandler(httpapi.Services{
		Catalog:    catalog,
		Orders:     ledger,
		Checkout:   checkout,
		Queue:      queue,
		Identity:   identity,
		Attendance: attendance,
		Reports:    service.NewReports(ledger, attendance, time.Local),
		Messaging:  service.NewMessaging(ledger, service.DefaultQRGenerator{}, cfg.MessengerPage, cfg.PublicBaseURL),
		Kiosk:      kiosk,
	}, logger)

	httpapi.StartServer(cfg.HTTPAddr, httpapi.NewRouter(handler))
}
