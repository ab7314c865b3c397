package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"incident-board/internal/config"
	"incident-board/internal/consumer"
	"incident-board/internal/generator"
	"incident-board/internal/hub"
	"incident-board/internal/mqtt"
	"incident-board/internal/publisher"
	"incident-board/internal/repository"
	"incident-board/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DashboardService 整合各层：catalog 加载 → store 播种 → hub →
// 可选的事件发布与 MQTT 读数接入 → HTTP 服务。
type DashboardService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	store           *store.IncidentStore
	hub             *hub.Hub
	readingConsumer *consumer.ReadingConsumer
	server          *Server
}

// NewDashboardService 创建服务并完成启动前的全部装配
func NewDashboardService(cfg *config.Config, logger *zap.Logger) (*DashboardService, error) {
	s := &DashboardService{config: cfg, logger: logger}

	// 1. 加载 catalog（DB 不可用时回退内置种子，保证裸 go run 可用）
	catalogRepo := s.buildCatalogRepo()
	catalog, err := catalogRepo.LoadCatalog(context.Background())
	if err != nil {
		logger.Warn("Failed to load catalog from DB, falling back to seed", zap.Error(err))
		catalog, _ = repository.NewMemoryCatalogRepository().LoadCatalog(context.Background())
	}

	// 2. store + 播种
	gen := generator.New()
	s.store = store.NewIncidentStore(gen, cfg.Dashboard.MaxReadings)
	if cfg.Dashboard.SeedIncidents > 0 {
		s.store.Seed(catalog, cfg.Dashboard.SeedIncidents)
	}

	// 3. 事件发布（可选）
	pub, err := s.buildPublisher()
	if err != nil {
		return nil, err
	}

	// 4. hub
	s.hub = hub.New(s.store, catalog, pub, cfg.Dashboard.TickIntervalMs, logger)

	// 5. MQTT 读数接入（可选）
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create mqtt client: %w", err)
		}
		s.mqttClient = mqttClient
		s.readingConsumer = consumer.NewReadingConsumer(mqttClient, s.hub, cfg.MQTT.Topic, cfg.MQTT.QoS, logger)
	}

	// 6. HTTP 路由
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.NewHandler(s.hub, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.server = NewServer(cfg.HTTP.Addr, mux, logger)

	return s, nil
}

// Start 启动服务，阻塞到 HTTP 服务退出
func (s *DashboardService) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	if s.readingConsumer != nil {
		go func() {
			if err := s.readingConsumer.Start(ctx); err != nil {
				s.logger.Error("Reading consumer failed", zap.Error(err))
			}
		}()
	}

	return s.server.Start()
}

// Stop 停止服务并释放外部连接
func (s *DashboardService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping dashboard service")

	if err := s.server.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	if s.readingConsumer != nil {
		_ = s.readingConsumer.Stop()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}

	return nil
}

// buildCatalogRepo 按配置选择 catalog 来源
func (s *DashboardService) buildCatalogRepo() repository.CatalogRepository {
	if !s.config.DBEnabled {
		return repository.NewMemoryCatalogRepository()
	}

	db, err := sql.Open("postgres", s.config.Database.GetDSN())
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		s.logger.Warn("DB enabled but connection failed, falling back to seed catalog", zap.Error(err))
		return repository.NewMemoryCatalogRepository()
	}

	s.db = db
	s.logger.Info("Catalog source: PostgreSQL")
	return repository.NewPostgresCatalogRepository(db)
}

// buildPublisher 按配置选择事件发布实现
func (s *DashboardService) buildPublisher() (publisher.EventPublisher, error) {
	if !s.config.RedisEnabled {
		return publisher.NopPublisher{}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	s.redisClient = redisClient
	s.logger.Info("Incident event publishing enabled", zap.String("stream", s.config.Redis.Stream))
	return publisher.NewRedisPublisher(redisClient, s.config.Redis.Stream), nil
}
