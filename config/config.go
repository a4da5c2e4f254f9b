package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	NotifyAuto = "auto"
	NotifyNATS = "nats"
)

type Config struct {
	HTTPAddr      string
	AggHTTPAddr   string
	Storage       string
	Notify        string
	Namespace     string
	SQLitePath    string
	PollInterval  time.Duration
	NATSURL       string
	KafkaBroker   string
	OrdersTopic   string
	LogLevel      string
	PublicBaseURL string
	MessengerPage string

	StoreLat        float64
	StoreLng        float64
	BaseFee         float64
	FreeRadiusKm    float64
	PerKm           float64
	KioskIdle       time.Duration
	DefaultHourRate float64
}

func Load() Config {
	return Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8081"),
		AggHTTPAddr:   getEnv("AGG_HTTP_ADDR", ":8082"),
		Storage:       getEnv("POS_STORAGE", StorageMemory),
		Notify:        getEnv("POS_NOTIFY", NotifyAuto),
		Namespace:     getEnv("POS_NAMESPACE", "happyhearts:"),
		SQLitePath:    getEnv("SQLITE_PATH", "./pos.db"),
		PollInterval:  getEnvDuration("POLL_INTERVAL", time.Second),
		NATSURL:       getEnv("NATS_URL", nats.DefaultURL),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		OrdersTopic:   getEnv("KAFKA_ORDERS_TOPIC", "orders"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/"),
		MessengerPage: getEnv("MESSENGER_PAGE_ID", "61574616669270"),

		StoreLat:        getEnvFloat("STORE_LAT", 16.1194375),
		StoreLng:        getEnvFloat("STORE_LNG", 120.4034375),
		BaseFee:         getEnvFloat("DELIVERY_BASE_FEE", 40),
		FreeRadiusKm:    getEnvFloat("DELIVERY_FREE_RADIUS_KM", 3),
		PerKm:           getEnvFloat("DELIVERY_PER_KM", 10),
		KioskIdle:       getEnvDuration("KIOSK_IDLE_TIMEOUT", time.Minute),
		DefaultHourRate: getEnvFloat("STAFF_DEFAULT_HOURLY_RATE", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func MustInitPostgres() *sqlx.DB {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	connStr := "host=" + dbHost + " port=" + dbPort + " user=" + dbUser +
		" password=" + dbPassword + " dbname=" + dbName + " sslmode=disable"

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

// MustInitSQLite opens a file-backed database shared by every process
// pointed at the same path. WAL lets readers poll while a writer commits.
func MustInitSQLite(path string) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatal("Failed to open SQLite database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping SQLite database:", err)
	}

	return db
}

func MustInitRedis() *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func MustConnectNATS(url string) *nats.Conn {
	conn, err := nats.Connect(url, nats.Name("pos-svc"), nats.MaxReconnects(-1))
	if err != nil {
		log.Fatal("Failed to connect to NATS:", err)
	}
	return conn
}

func NewKafkaReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{os.Getenv("KAFKA_BROKER")},
		Topic:   topic,
		GroupID: groupID,
	})
}

func NewKafkaWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(os.Getenv("KAFKA_BROKER")),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}
