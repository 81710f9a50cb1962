package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/emazahmed/tech/internal/cart"
	"github.com/emazahmed/tech/internal/catalog"
	"github.com/emazahmed/tech/internal/httpapi"
	"github.com/emazahmed/tech/internal/order"
	"github.com/emazahmed/tech/internal/storage/postgres"
	"github.com/emazahmed/tech/pkg/kafka"
	"github.com/emazahmed/tech/pkg/logging"
	"github.com/emazahmed/tech/pkg/metrics"
	"github.com/emazahmed/tech/pkg/outbox"
)

type cfg struct {
	Port           string
	DatabaseURL    string
	KafkaBrokers   string
	OrdersTopic    string
	RelayInterval  time.Duration
	RelayBatchSize int
}

func readCfg() (cfg, error) {
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if db == "" {
		return cfg{}, errors.New("DATABASE_URL is required")
	}
	relayMS, _ := strconv.Atoi(getenv("OUTBOX_RELAY_INTERVAL_MS", "500"))
	batch, _ := strconv.Atoi(getenv("OUTBOX_RELAY_BATCH", "100"))

	return cfg{
		Port:           getenv("PORT", "8080"),
		DatabaseURL:    db,
		KafkaBrokers:   getenv("KAFKA_BROKERS", ""),
		OrdersTopic:    getenv("KAFKA_ORDERS_TOPIC", "commerce.orders"),
		RelayInterval:  time.Duration(relayMS) * time.Millisecond,
		RelayBatchSize: batch,
	}, nil
}

func main() {
	cfg, err := readCfg()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer pool.Close()

	orderStore := postgres.NewOrderStore(pool, cfg.OrdersTopic)
	productStore := postgres.NewProductStore(pool)
	cartStore := postgres.NewCartStore(pool)
	customerStore := postgres.NewCustomerStore(pool)

	srv := &httpapi.Server{
		Service:   "commerce_api",
		Orders:    order.NewService(orderStore, productStore, customerStore, cartStore),
		Lifecycle: order.NewLifecycle(orderStore),
		Queries:   order.NewQueries(orderStore),
		Catalog:   catalog.NewService(productStore),
		Carts:     cart.NewService(cartStore),
		Metrics:   metrics.NewServerMetrics("commerce_api"),
		Health:    pool.Ping,
	}

	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		go relayOutbox(pool, kafkaClient, cfg)
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("commerce-api listening on :%s (kafka=%v)", cfg.Port, kafkaClient.Enabled())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %v", err)
	}
}

// relayOutbox drains pending outbox rows to kafka. Publishing is
// at-least-once: a row is marked sent only after the broker acknowledged
// the write, so a crash between the two replays the event.
func relayOutbox(pool *pgxpool.Pool, client *kafka.Client, cfg cfg) {
	writers := map[string]*kafkago.Writer{}
	for {
		time.Sleep(cfg.RelayInterval)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pending, err := outbox.FetchPending(ctx, pool, cfg.RelayBatchSize)
		if err != nil {
			logging.Log(logging.Fields{Service: "commerce_api", Step: "outbox_fetch", Status: "error", Message: err.Error()})
			cancel()
			continue
		}
		for _, rec := range pending {
			w, ok := writers[rec.Topic]
			if !ok {
				w = client.NewWriter(rec.Topic)
				writers[rec.Topic] = w
			}
			if err := kafka.PublishRaw(ctx, w, rec.Key, rec.Payload); err != nil {
				logging.Log(logging.Fields{Service: "commerce_api", EventID: rec.EventID, Step: "outbox_publish", Status: "error", Message: err.Error()})
				break
			}
			if err := outbox.MarkSent(ctx, pool, rec.ID); err != nil {
				logging.Log(logging.Fields{Service: "commerce_api", EventID: rec.EventID, Step: "outbox_mark_sent", Status: "error", Message: err.Error()})
				break
			}
			logging.Log(logging.Fields{Service: "commerce_api", EventID: rec.EventID, Step: "outbox_publish", Status: "sent"})
		}
		cancel()
	}
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
