package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aura/backend/ai"
	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/internal/service"
	"aura/backend/internal/ws"
	"aura/backend/pkg/cache"
	"aura/backend/pkg/config"
	"aura/backend/pkg/crypto"
	"aura/backend/pkg/health"
	"aura/backend/pkg/jwt"
	"aura/backend/pkg/lock"
	"aura/backend/pkg/logger"
	"aura/backend/pkg/middleware"
	"aura/backend/pkg/resilience"
	"aura/backend/pkg/secrets"
	"aura/backend/shared/observability"
	sharedredis "aura/backend/shared/redis"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const serviceName = "aura-backend"

// Container holds all the dependencies for the application
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Logger      *logger.Logger
	Secrets     secrets.Manager
	JWTService  *jwt.Service
	Redis       *sharedredis.Client
	Telemetry   *observability.Telemetry
	Metrics     *observability.Metrics
	Health      *health.Checker
	LLM         ai.Provider
	Keys        *crypto.KeyManager
	Hub         *ws.Hub
	RateLimiter *middleware.RateLimiter

	InsightsCache *cache.Cache[*models.SafetyInsights]

	UserService       *service.UserService
	ThreatService     *service.ThreatService
	CompanionDialogue *service.CompanionDialogue
	EvidenceService   *service.EvidenceService
	EmergencyService  *service.EmergencyService
	CommunityService  *service.CommunityService
	LearningService   *service.LearningService
	InsightsService   *service.InsightsService

	providerSet bool
}

// Option customizes container construction
type Option func(*Container)

// WithSecrets replaces the secret source chosen from configuration
func WithSecrets(m secrets.Manager) Option {
	return func(c *Container) { c.Secrets = m }
}

// WithProvider injects the LLM provider instead of resolving one from
// configuration. A nil provider runs the AI features on their fallbacks.
func WithProvider(p ai.Provider) Option {
	return func(c *Container) {
		c.LLM = p
		c.providerSet = true
	}
}

// WithRedis supplies an already connected Redis client
func WithRedis(client *sharedredis.Client) Option {
	return func(c *Container) { c.Redis = client }
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger, opts ...Option) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}
	c := &Container{Config: cfg, DB: db, Logger: log}
	for _, opt := range opts {
		opt(c)
	}

	if c.Secrets == nil {
		m, err := newSecretsManager(cfg, log)
		if err != nil {
			return nil, err
		}
		c.Secrets = m
	}

	telemetry, err := observability.Setup(observability.Options{
		ServiceName: serviceName,
		TraceStdout: cfg.Observability.TraceStdout,
	})
	if err != nil {
		return nil, err
	}
	c.Telemetry = telemetry

	metrics, err := observability.NewMetrics(telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	c.Metrics = metrics

	jwtSecret := secrets.GetSecretWithDefault(ctx, c.Secrets, secrets.KeyJWT, cfg.JWT.Secret)
	if c.JWTService, err = jwt.NewService(jwtSecret, cfg.JWT.ExpiryHours); err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	if c.Keys, err = newKeyManager(ctx, cfg, c.Secrets, log); err != nil {
		return nil, err
	}

	if c.Redis == nil && cfg.Redis.URL != "" {
		client, err := sharedredis.NewClient(sharedredis.Options{
			URL:      cfg.Redis.URL,
			Password: secrets.GetSecretWithDefault(ctx, c.Secrets, secrets.KeyRedisPasswd, cfg.Redis.Password),
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		c.Redis = client
	}

	if !c.providerSet {
		if c.LLM, err = c.newProvider(ctx); err != nil {
			return nil, err
		}
	}
	if c.LLM == nil {
		log.Warn("No LLM credential configured; threat analysis and companion chat use fallbacks",
			"provider", cfg.LLM.Provider)
	}

	c.RateLimiter = middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
	})
	c.Hub = ws.NewHub()

	c.wireServices()
	c.registerHealthChecks()

	return c, nil
}

func newSecretsManager(cfg *config.Config, log *logger.Logger) (secrets.Manager, error) {
	if !cfg.Vault.Enabled {
		return secrets.EnvManager{}, nil
	}
	m, err := secrets.NewVaultManager(secrets.VaultConfig{
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		SecretsPath: cfg.Vault.SecretsPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault secrets manager: %w", err)
	}
	return m, nil
}

func newKeyManager(ctx context.Context, cfg *config.Config, m secrets.Manager, log *logger.Logger) (*crypto.KeyManager, error) {
	master := secrets.GetSecretWithDefault(ctx, m, secrets.KeyEvidence, cfg.Evidence.MasterKey)
	if master != "" {
		km, err := crypto.NewKeyManager(master)
		if err != nil {
			return nil, fmt.Errorf("invalid evidence master key: %w", err)
		}
		return km, nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("EVIDENCE_MASTER_KEY is required in production")
	}

	log.Warn("EVIDENCE_MASTER_KEY not set; using an ephemeral key, stored evidence will not survive a restart")
	return crypto.NewEphemeralKeyManager()
}

func (c *Container) newProvider(ctx context.Context) (ai.Provider, error) {
	cfg := c.Config.LLM
	provider, err := ai.NewFromSettings(ctx, ai.Settings{
		Provider:      cfg.Provider,
		OpenAIKey:     secrets.GetSecretWithDefault(ctx, c.Secrets, secrets.KeyOpenAI, cfg.OpenAIKey),
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiKey:     secrets.GetSecretWithDefault(ctx, c.Secrets, secrets.KeyGemini, cfg.GeminiKey),
		GeminiModel:   cfg.GeminiModel,
		Timeout:       cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	breakerCfg := resilience.DefaultConfig("llm-" + provider.Name())
	breakerCfg.OnStateChange = func(name string, to resilience.State) {
		c.Metrics.CircuitTransition(name, string(to))
	}

	return ai.NewGuarded(provider, ai.GuardOptions{
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
		Breaker:   resilience.NewCircuitBreaker(breakerCfg, c.Logger),
		Tracer:    c.Telemetry.Tracer,
		Metrics:   c.Metrics,
	}), nil
}

func (c *Container) wireServices() {
	db := c.DB

	users := repository.NewGormUserRepository(db)
	threats := repository.NewGormThreatRepository(db)
	conversations := repository.NewGormConversationRepository(db)
	evidence := repository.NewGormEvidenceRepository(db)
	contacts := repository.NewGormContactRepository(db)
	alerts := repository.NewGormAlertRepository(db)
	reports := repository.NewGormCommunityRepository(db)
	learning := repository.NewGormLearningRepository(db)

	if c.Config.Cache.Enabled {
		c.InsightsCache = cache.New[*models.SafetyInsights](cache.Options{
			TTL:         c.Config.Cache.TTL,
			MaxItems:    c.Config.Cache.MaxSize,
			PurgeWindow: c.Config.Cache.PurgeWindow,
		})
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	var publisher service.Publisher
	if c.Redis != nil {
		locker = c.Redis.Locker("aura:lock:", 2*c.Config.LLM.Timeout)
		publisher = c.Redis
	}

	c.InsightsService = service.NewInsightsService(threats, evidence, contacts, learning, c.InsightsCache)
	c.UserService = service.NewUserService(users, c.JWTService)
	c.ThreatService = service.NewThreatService(
		service.NewThreatClassifier(c.LLM, c.Metrics), threats, c.InsightsService, c.Metrics)
	c.CompanionDialogue = service.NewCompanionDialogue(c.LLM, conversations, locker)
	c.EvidenceService = service.NewEvidenceService(evidence, c.Keys, c.InsightsService)
	c.EmergencyService = service.NewEmergencyService(contacts, alerts, publisher, c.InsightsService, c.Metrics)
	c.CommunityService = service.NewCommunityService(reports)
	c.LearningService = service.NewLearningService(service.DefaultCatalog(), learning, c.InsightsService)
}

func (c *Container) registerHealthChecks() {
	c.Health = health.NewChecker(c.Logger, 30*time.Second)

	c.Health.RegisterDatabaseCheck(func(ctx context.Context) error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if c.Redis != nil {
		c.Health.RegisterRedisCheck(c.Redis.Ping)
	}

	c.Health.RegisterCheck("llm", false, func(context.Context) (health.Status, string, error) {
		if c.LLM == nil {
			return health.StatusDegraded, "No LLM credential; fallback replies active", nil
		}
		return health.StatusUp, "Provider " + c.LLM.Name() + " configured", nil
	})
	c.Health.RegisterCheck("websocket", false, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, fmt.Sprintf("%d active connections", c.Hub.ActiveConnections()), nil
	})
}

// Start launches the background loops; they stop when ctx is cancelled
func (c *Container) Start(ctx context.Context) {
	c.Health.Start(ctx)
	go c.RateLimiter.Run(ctx)
	if c.InsightsCache != nil {
		go c.InsightsCache.Run(ctx)
	}
}

// Close releases external resources
func (c *Container) Close(ctx context.Context) error {
	c.Hub.CloseAll()

	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if closer, ok := c.LLM.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if c.Telemetry != nil {
		errs = append(errs, c.Telemetry.Shutdown(ctx))
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
