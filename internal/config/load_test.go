package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err = os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestBudget"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nSERVER_ALLOWED_ORIGINS=https://a.example, https://b.example\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "household_events", cfg.Kafka.HouseholdTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.Equal(t, time.Duration(0), cfg.Cache.FreshnessWindow)
	assert.Equal(t, 5*time.Second, cfg.Cache.DedupWindow)
	assert.Equal(t, 3, cfg.Kafka.HandlerAttempts)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "120-M", cfg.RateLimit.Rate)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	require.NotNil(t, cfgWithNameAndType)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func validConfig() *Config {
	return &Config{
		Application: ApplicationConfig{Env: "test", Name: "household-budget"},
		Logging:     LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
		},
		RateLimit: RateLimitConfig{Enabled: true, Rate: "120-M"},
		Kafka: KafkaConfig{
			Brokers:         "localhost:9092",
			HouseholdTopic:  "household_events",
			ConsumerGroup:   "budget-engine-group",
			MinBytes:        10240,
			MaxBytes:        10485760,
			MaxWait:         time.Second,
			DLQTopic:        "household_events_dlq",
			HandlerAttempts: 3,
		},
		Postgres: PostgresConfig{
			URL:             "postgres://localhost:5432/household_budget",
			MaxConns:        20,
			MinConns:        5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		MongoDB: MongoDBConfig{
			URI:             "mongodb://localhost:27017",
			Database:        "household_budget",
			Timeout:         10 * time.Second,
			MaxPoolSize:     100,
			MinPoolSize:     10,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Outbox:     OutboxConfig{PollingInterval: 2 * time.Second, BatchSize: 100, MaxRetryAttempts: 5},
		WorkerPool: WorkerPoolConfig{Size: 10},
		Cache:      CacheConfig{DedupWindow: 5 * time.Second},
		Retention:  RetentionConfig{Interval: time.Hour, Outbox: 7 * 24 * time.Hour},
	}
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	err := validConfig().validate()
	assert.NoError(t, err, "Default config should be valid")
}

func TestConfig_Validate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Kafka.HouseholdTopic = ""
	cfg.Cache.FreshnessWindow = -time.Second
	cfg.Cache.DedupWindow = 0
	cfg.RateLimit.Rate = ""

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "KAFKA_HOUSEHOLD_TOPIC is required")
	assert.Contains(t, err.Error(), "CACHE_FRESHNESS_WINDOW must not be negative")
	assert.Contains(t, err.Error(), "DEDUP_WINDOW must be greater than 0")
	assert.Contains(t, err.Error(), "RATE_LIMIT is required")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
