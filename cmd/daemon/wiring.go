// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/idemflow/internal/bus"
	"github.com/ManuGH/idemflow/internal/config"
	"github.com/ManuGH/idemflow/internal/daemon"
	"github.com/ManuGH/idemflow/internal/domain/model"
	"github.com/ManuGH/idemflow/internal/domain/ports"
	"github.com/ManuGH/idemflow/internal/domain/store"
	"github.com/ManuGH/idemflow/internal/health"
	"github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/resilience"
	"github.com/ManuGH/idemflow/internal/router"
	"github.com/ManuGH/idemflow/internal/strategy"
	"github.com/ManuGH/idemflow/internal/telemetry"
	"github.com/ManuGH/idemflow/internal/transport/kafka"
	"github.com/ManuGH/idemflow/internal/usecase"
)

const (
	statusBreakerThreshold = 5
	statusBreakerReset     = 30 * time.Second
)

// runtime is the wired core shared by the daemon and the one-shot commands.
type runtime struct {
	cfg      config.AppConfig
	backend  *store.Backend
	payments *usecase.ProcessPaymentEvent
	orders   *usecase.OrderService
	stock    *usecase.StockService
	router   *router.Router
	bus      *bus.MemoryBus
	producer *kafka.Producer // nil unless Kafka is enabled

	// statusSink, when set, sees every notification logStatusChanges drains.
	statusSink func(ports.StatusChanged)
}

func buildRuntime(ctx context.Context, cfg config.AppConfig) (*runtime, error) {
	backend, err := store.OpenBackend(ctx, store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{cfg: cfg, backend: backend, bus: bus.NewMemoryBus()}

	var publisher ports.Publisher = bus.NewStatusPublisher(rt.bus, cfg.Kafka.StatusTopic)
	if cfg.Kafka.Enabled {
		rt.producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:     cfg.Kafka.Brokers,
			ClientID:    cfg.Kafka.ClientID,
			StatusTopic: cfg.Kafka.StatusTopic,
		})
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		breaker := resilience.NewCircuitBreaker("kafka-status", statusBreakerThreshold, statusBreakerReset)
		publisher = resilience.NewGuardedPublisher(rt.producer, breaker)
	}

	payments := store.For(backend, model.KindPayment, func() *model.Payment { return new(model.Payment) })
	orders := store.For(backend, model.KindOrder, func() *model.Order { return new(model.Order) })
	stocks := store.For(backend, model.KindStock, func() *model.Stock { return new(model.Stock) })

	rt.payments = usecase.NewProcessPaymentEvent(payments, publisher)
	rt.stock = usecase.NewStockService(stocks)
	rt.orders = usecase.NewOrderService(orders, rt.stock)

	registry := strategy.Default(rt.payments, rt.orders)
	rt.router = router.New(registry, router.WithTracer(telemetry.Tracer(telemetry.InstrumentationName)))

	logger := log.WithComponent("daemon")
	logger.Info().
		Str(log.FieldEvent, "runtime.wired").
		Str(log.FieldBackend, backend.Name()).
		Strs("strategies", registry.Names()).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("core services wired")
	return rt, nil
}

func (rt *runtime) Close() error {
	if rt.producer != nil {
		rt.producer.Close()
	}
	return rt.backend.Close()
}

// registerCheckers adds readiness checks for the store and, when enabled, the
// Kafka cluster.
func (rt *runtime) registerCheckers(hm *health.Manager) {
	hm.SetDetail("store_backend", rt.backend.Name())
	hm.SetDetail("kafka_enabled", rt.producer != nil)
	hm.RegisterChecker(health.NewPingChecker("store", rt.backend.Ping, false))
	if db := rt.backend.SqliteDB(); db != nil {
		hm.RegisterChecker(health.NewSqliteIntegrityChecker(db.DB))
	}
	if rt.producer != nil {
		hm.RegisterChecker(health.NewPingChecker("kafka", rt.producer.Ping, true))
	}
}

// provisionTopics creates the configured topics when the active profiles
// allow it. Failures are logged; the consumer reports missing topics itself.
func (rt *runtime) provisionTopics(ctx context.Context) {
	k := rt.cfg.Kafka
	logger := log.WithComponent("kafka")
	if rt.producer == nil || !kafka.ShouldAutoCreate(k.AutoCreate, k.AutoCreateProfiles, k.ActiveProfiles) {
		logger.Debug().Str(log.FieldEvent, "kafka.topics_skipped").Msg("topic auto-creation disabled")
		return
	}
	specs := kafka.ParseTopicSpecs(k.Topics)
	if err := kafka.EnsureTopics(ctx, rt.producer.Admin(), specs); err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "kafka.topics_failed").Msg("topic provisioning incomplete")
	}
}

// workers returns the background loops for the daemon manager.
func (rt *runtime) workers() ([]daemon.Worker, error) {
	k := rt.cfg.Kafka
	workers := []daemon.Worker{{Name: "status-log", Run: rt.logStatusChanges}}
	if !k.Enabled {
		if k.ProducerEnabled {
			logger := log.WithComponent("kafka")
			logger.Warn().
				Str(log.FieldEvent, "kafka.producer_ignored").
				Msg("scenario producer needs kafka.enabled; not starting it")
		}
		return workers, nil
	}

	topics := kafka.NewTopicRouter()
	topics.Register(k.PaymentTopic, kafka.NewPaymentHandler(rt.payments))
	if k.EventsTopic != "" {
		topics.Register(k.EventsTopic, kafka.NewEventHandler(rt.router))
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  k.Brokers,
		GroupID:  k.GroupID,
		Topics:   topics.Topics(),
		ClientID: k.ClientID,
	}, topics)
	if err != nil {
		return nil, err
	}
	workers = append(workers, daemon.Worker{Name: "kafka-consumer", Run: consumer.Run})

	if k.ProducerEnabled {
		scenarios := kafka.NewScenarioProducer(rt.producer, k.PaymentTopic)
		workers = append(workers, daemon.Worker{Name: "kafka-scenarios", Run: scenarios.Run})
	}
	return workers, nil
}

// logStatusChanges drains in-process status notifications. With Kafka
// enabled they go to the broker instead and this loop stays idle.
func (rt *runtime) logStatusChanges(ctx context.Context) error {
	sub, err := rt.bus.Subscribe(ctx, rt.statusTopic())
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() { _ = sub.Close() }()

	logger := log.WithComponent("notifications")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			ev, isStatus := msg.(ports.StatusChanged)
			if !isStatus {
				continue
			}
			logger.Info().
				Str(log.FieldEvent, "payment.status_changed").
				Str(log.FieldEventID, ev.EventID).
				Str(log.FieldAggregateKey, ev.PaymentID).
				Str("status", ev.Status).
				Uint64(log.FieldVersion, ev.Version).
				Msg("payment status changed")
		}
	}
}

func (rt *runtime) statusTopic() string {
	if topic := rt.cfg.Kafka.StatusTopic; topic != "" {
		return topic
	}
	return ports.TopicPaymentStatus
}

var errNoKafka = errors.New("no Kafka brokers configured; set IDEMFLOW_KAFKA_BROKERS")
