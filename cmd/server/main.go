package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/credentials"
	"github.com/aeroscout/fareengine/internal/handler"
	"github.com/aeroscout/fareengine/internal/provider"
	"github.com/aeroscout/fareengine/internal/ratelimit"
	"github.com/aeroscout/fareengine/internal/search"
	"github.com/aeroscout/fareengine/internal/session"
	"github.com/aeroscout/fareengine/internal/strategy"
)

const providerName = "kiwi"

func main() {
	v := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	sessionStore, credentialStore := initStores(v, logger)

	fetcher := credentials.NewStaticFetcher(credentials.StaticFetcherConfig{
		Headers:  v.GetStringMapString("credentials.headers"),
		ProbeURL: v.GetString("provider.endpoint"),
		Timeout:  v.GetDuration("credentials.probe_timeout"),
		Logger:   logger,
	})
	broker := credentials.NewBroker(credentials.BrokerConfig{
		Provider: providerName,
		Fetcher:  fetcher,
		Store:    credentialStore,
		TTL:      v.GetDuration("credentials.ttl"),
		Logger:   logger,
	})
	broker.LoadInitial(context.Background())

	limiter := ratelimit.NewProviderLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: v.GetFloat64("provider.requests_per_second"),
		BurstSize:         v.GetInt("provider.burst_size"),
	})
	client := provider.NewClient(provider.Config{
		Endpoint:       v.GetString("provider.endpoint"),
		RequestTimeout: v.GetDuration("provider.request_timeout"),
		PageDelay:      v.GetDuration("provider.page_delay"),
	}, ratelimit.NewProviderPacer(limiter, providerName), logger)

	var quota *ratelimit.DailyQuota
	if max := v.GetInt("quota.daily_max"); max > 0 {
		quota = ratelimit.NewDailyQuota(max)
	}

	engine := search.NewEngine(client, broker, sessionStore, quota, search.Config{
		PhaseTimeout: v.GetDuration("search.phase_timeout"),
		Retry:        search.RetryPolicy{CredentialRetries: v.GetInt("search.credential_retries")},
		Direct: strategy.DirectConfig{
			DedicatedSearch: v.GetBool("search.dedicated_direct"),
		},
		HiddenCity: strategy.HiddenCityConfig{
			MaxCandidates: v.GetInt("search.hidden_city_candidates"),
			Concurrency:   v.GetInt("search.hidden_city_concurrency"),
			Threshold:     strategy.ThresholdMode(v.GetString("search.hidden_city_threshold")),
		},
		HubProbe: strategy.HubProbeConfig{
			MaxHubs:         v.GetInt("search.hub_max"),
			SacrificePerHub: v.GetInt("search.hub_sacrifices"),
			Concurrency:     v.GetInt("search.hub_concurrency"),
			Threshold:       strategy.ThresholdMode(v.GetString("search.hub_threshold")),
		},
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	handler.NewSearchHandler(engine, logger).Register(e)

	port := v.GetString("server.port")
	logger.Info("starting fare engine server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func loadConfig() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", "8080")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", 30*time.Minute)

	v.SetDefault("provider.endpoint", provider.DefaultEndpoint)
	v.SetDefault("provider.request_timeout", 45*time.Second)
	v.SetDefault("provider.page_delay", 500*time.Millisecond)
	v.SetDefault("provider.requests_per_second", 4.0)
	v.SetDefault("provider.burst_size", 8)

	v.SetDefault("credentials.ttl", 30*time.Minute)
	v.SetDefault("credentials.probe_timeout", 10*time.Second)
	v.SetDefault("credentials.file_dir", "./data")
	v.SetDefault("credentials.headers", map[string]string{})

	v.SetDefault("quota.daily_max", 50)

	v.SetDefault("search.phase_timeout", 90*time.Second)
	v.SetDefault("search.credential_retries", 1)
	v.SetDefault("search.dedicated_direct", false)
	v.SetDefault("search.hidden_city_candidates", 8)
	v.SetDefault("search.hidden_city_concurrency", 3)
	v.SetDefault("search.hidden_city_threshold", "")
	v.SetDefault("search.hub_max", 5)
	v.SetDefault("search.hub_sacrifices", 3)
	v.SetDefault("search.hub_concurrency", 2)
	v.SetDefault("search.hub_threshold", "")

	v.SetEnvPrefix("FAREENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/fareengine")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Failed to read config file: %v", err)
		}
	}

	return v
}

// initStores wires the Redis-backed session and credential stores, falling
// back to in-process and file storage when Redis is unreachable at startup.
func initStores(v *viper.Viper, logger *zap.Logger) (session.Store, credentials.Store) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-process session store and file credential cache",
			zap.String("addr", v.GetString("redis.addr")), zap.Error(err))
		return session.NewMemoryStore(0), credentials.NewFileStore(v.GetString("credentials.file_dir"))
	}

	logger.Info("connected to redis", zap.String("addr", v.GetString("redis.addr")))
	sessionTTL := v.GetDuration("redis.session_ttl")
	credentialTTL := v.GetDuration("credentials.ttl")
	return session.NewRedisStore(rdb, sessionTTL), credentials.NewRedisStore(rdb, credentialTTL)
}
