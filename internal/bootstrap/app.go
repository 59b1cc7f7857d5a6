package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studygenie/internal/ai"
	"studygenie/internal/app"
	"studygenie/internal/config"
	"studygenie/internal/ingest"
	"studygenie/internal/model"
	mongoClient "studygenie/internal/platform/mongo"
	mysqlClient "studygenie/internal/platform/mysql"
	rabbitmqClient "studygenie/internal/platform/rabbitmq"
	redisClient "studygenie/internal/platform/redis"
	"studygenie/internal/prompt"
	"studygenie/internal/repository"
	"studygenie/internal/session"
	"studygenie/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	MySQL            *gorm.DB
	Redis            *redis.Client
	Mongo            *mongo.Client
	MQConn           *amqp.Connection
	TranscriptWorker *worker.TranscriptPersistWorker

	Services *Services

	publisher *rabbitmqClient.TranscriptPublisher
	StartedAt time.Time
}

// Services are the application services the HTTP layer serves. Auth is nil
// when no user database is configured.
type Services struct {
	Sources  *app.SourceService
	Chat     *app.ChatService
	Roadmaps *app.RoadmapService
	Tools    *app.ToolsService
	Stats    *app.StatsService
	Auth     *app.AuthService
	Provider string
}

// Deps are the collaborators NewServices wires together. Only Store is
// required; a nil Model makes every answer a fallback template.
type Deps struct {
	Store      session.Store
	Model      ai.Model
	Transcript app.TranscriptRecorder
	Sources    app.SourceRecords
	Messages   app.MessageCounter
	History    app.TranscriptReader
	Users      app.UserStore
}

func NewServices(cfg *config.Config, deps Deps, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	composer, err := prompt.New(prompt.Options{
		HistoryTurns:   cfg.Prompt.HistoryTurns,
		MaxSourceChars: cfg.Prompt.MaxSourceChars,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt composer failed: %w", err)
	}

	generator := ai.NewGenerator(deps.Model, ai.GeneratorOptions{
		ChunkSize: cfg.LLM.ChunkSize,
		Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, logger.Named("ai"))

	ingestor := ingest.New(ingest.Options{
		FetchTimeout:  time.Duration(cfg.Ingest.FetchTimeoutSeconds) * time.Second,
		MaxFetchBytes: int64(cfg.Ingest.MaxFetchBytes),
		UserAgent:     cfg.Ingest.UserAgent,
	}, logger.Named("ingest"))

	conv := &app.Conversation{
		Store:      deps.Store,
		Sequencer:  session.NewSequencer(),
		Composer:   composer,
		Generator:  generator,
		Transcript: deps.Transcript,
		Logger:     logger.Named("app"),
	}

	services := &Services{
		Sources:  app.NewSourceService(conv, ingestor, deps.Sources),
		Chat:     app.NewChatService(conv, ingestor, deps.History),
		Roadmaps: app.NewRoadmapService(conv),
		Tools:    app.NewToolsService(conv),
		Stats:    app.NewStatsService(conv, deps.Messages),
		Provider: generator.Provider(),
	}
	if deps.Users != nil {
		services.Auth = app.NewAuthService(
			deps.Users,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
			logger.Named("auth"),
		)
	}
	return services, nil
}

// New connects every enabled dependency and wires the services. On error the
// connections opened so far are closed.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var deps Deps

	if cfg.MySQL.Enabled {
		a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.App.Env == "dev")
		if err != nil {
			return nil, err
		}
		if err = a.MySQL.AutoMigrate(&model.User{}, &model.Message{}); err != nil {
			return nil, fmt.Errorf("auto migrate tables failed: %w", err)
		}
		messageRepo := repository.NewMessageRepository(a.MySQL)
		deps.Users = repository.NewUserRepository(a.MySQL)
		deps.Messages = messageRepo
		deps.History = messageRepo
		deps.Transcript = messageRepo

		if cfg.RabbitMQ.Enabled {
			queue := cfg.RabbitMQ.TranscriptPersistQueue
			a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name, queue)
			if err != nil {
				return nil, err
			}
			a.TranscriptWorker = worker.NewTranscriptPersistWorker(a.MQConn, messageRepo, queue, logger.Named("worker"))
			if err = a.TranscriptWorker.Start(ctx); err != nil {
				return nil, fmt.Errorf("start transcript worker failed: %w", err)
			}
			a.publisher = rabbitmqClient.NewTranscriptPublisher(a.MQConn, queue)
			deps.Transcript = a.publisher
		}
	} else if cfg.RabbitMQ.Enabled {
		logger.Warn("rabbitmq is enabled without mysql; transcript queue disabled")
	}

	if cfg.Mongo.Enabled {
		a.Mongo, err = mongoClient.New(ctx, cfg.Mongo.URI, cfg.App.Name)
		if err != nil {
			return nil, err
		}
		deps.Sources = repository.NewSourceRepository(a.Mongo.Database(cfg.Mongo.Database))
	}

	deps.Store, err = a.sessionStore(ctx)
	if err != nil {
		return nil, err
	}

	deps.Model, err = newModel(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Services, err = NewServices(cfg, deps, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("services ready",
		zap.String("session_backend", cfg.Session.Backend),
		zap.String("provider", a.Services.Provider),
		zap.Bool("mysql", a.MySQL != nil),
		zap.Bool("mongo", a.Mongo != nil),
		zap.Bool("rabbitmq", a.MQConn != nil),
	)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (session.Store, error) {
	cfg := a.Config
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.Redis = client
		return session.NewRedisStore(client, ttl, cfg.Session.MaxTurns), nil
	case config.SessionBackendMongo:
		store := session.NewMongoStore(a.Mongo.Database(cfg.Mongo.Database), ttl, cfg.Session.MaxTurns)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.Session.Capacity, ttl, cfg.Session.MaxTurns), nil
	}
}

// newModel picks the upstream model. Without a usable key the service runs
// on fallback templates only.
func newModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ai.Model, error) {
	if !ai.UsableAPIKey(cfg.LLM.APIKey) {
		logger.Warn("no llm api key configured; answers will use fallback templates")
		return nil, nil
	}
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return ai.NewOpenAICompatibleModel(ai.OpenAICompatibleConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		}), nil
	default:
		m, err := ai.NewGeminiModel(ctx, ai.GeminiConfig{
			APIKey:          cfg.LLM.APIKey,
			Model:           cfg.LLM.Model,
			StructuredModel: cfg.LLM.StructuredModel,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
