package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/payvault/user-service/config"
	"github.com/payvault/user-service/internal/infrastructure/postgres"
	"github.com/payvault/user-service/internal/infrastructure/rediscache"
	"github.com/payvault/user-service/pkg/helpers"
	"github.com/payvault/user-service/pkg/mailer"
)

// Container holds the shared infrastructure handles, built once in main and
// passed down explicitly. Optional backends (RabbitMQ, GCS, Elasticsearch,
// Mailgun) stay nil when unconfigured; consumers degrade accordingly.
type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client
	Cache *rediscache.Cache
	Codec *helpers.TokenCodec

	RabbitPub *helpers.RabbitPublisher
	Mailgun   *mailer.Mailgun
	GCS       *storage.Client
	ES        *elasticsearch.Client
}

// Build constructs the required backends (Postgres, Redis, token codec) and
// attempts the optional ones, logging a warning for each that is missing or
// unreachable rather than failing startup.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	rdb := rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	codec, err := helpers.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("token codec: %w", err)
	}

	c := &Container{
		Cfg:    cfg,
		Logger: logger,
		Pool:   pool,
		Redis:  rdb,
		Cache:  rediscache.New(rdb),
		Codec:  codec,
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, email jobs disabled")
		} else {
			c.RabbitPub = pub
		}
	}

	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
		c.Mailgun = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs unavailable, avatar uploads disabled")
		} else {
			c.GCS = gcs
		}
	}

	if cfg.ElasticsearchAddrs != "" {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, user search disabled")
		} else {
			c.ES = es
		}
	}

	return c, nil
}

// Close releases every held backend. Safe to call on a partially built
// container.
func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
