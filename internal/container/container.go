package container

import (
	"activities-web/internal/config"
	"activities-web/internal/reconciler"
	"activities-web/internal/service"
	"activities-web/internal/session"
	"activities-web/pkg/logger"
	"activities-web/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Views       session.Store
	API         service.ActivitiesAPI
	Reconciler  *reconciler.Reconciler
	Signer      *session.Signer
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Keep view sessions in Redis when configured and reachable
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, keeping view sessions in memory")
		} else {
			redisClient = client
			logger.WithField("key_prefix", client.KeyBuilder.GetPrefix()).Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, keeping view sessions in memory")
	}

	var views session.Store
	if redisClient != nil {
		views = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		views = session.NewMemoryStore(cfg.SessionTTL)
	}

	api := service.NewActivitiesClient(cfg.APIBaseURL, cfg.APITimeout, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		Views:       views,
		API:         api,
		Reconciler:  reconciler.New(api, views, cfg.MessageHideAfter, logger),
		Signer:      session.NewSigner(cfg.SessionSecret, cfg.SessionTTL),
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetReconciler returns the view state reconciler
func (c *Container) GetReconciler() *reconciler.Reconciler {
	return c.Reconciler
}

// GetViews returns the view session store
func (c *Container) GetViews() session.Store {
	return c.Views
}

// GetSigner returns the session cookie signer
func (c *Container) GetSigner() *session.Signer {
	return c.Signer
}
