package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Messaging struct {
		// PublicURL is the externally reachable websocket URL handed to
		// attendees in their join info, e.g. wss://host/messaging.
		PublicURL    string        `yaml:"public_url"`
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"messaging"`

	Client struct {
		RosterThrottle     time.Duration `yaml:"roster_throttle"`
		SocketOpenTimeout  time.Duration `yaml:"socket_open_timeout"`
		HandRaiseTimeout   time.Duration `yaml:"hand_raise_timeout"`
		LookupMaxAttempts  int           `yaml:"lookup_max_attempts"`
		LookupInitialDelay time.Duration `yaml:"lookup_initial_delay"`
	} `yaml:"client"`

	Meetings struct {
		RecordTTL     time.Duration `yaml:"record_ttl"`
		DefaultRegion string        `yaml:"default_region"`
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
	} `yaml:"meetings"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool   `yaml:"prometheus_enabled"`
		MetricsPath       string `yaml:"metrics_path"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"http"`

		Messaging struct {
			MessagesPerSecond   float64 `yaml:"messages_per_second"`
			Burst               int     `yaml:"burst"`
			MaxMessageSizeBytes int64   `yaml:"max_message_size_bytes"`
		} `yaml:"messaging"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Messaging hub
	if c.Messaging.PingInterval <= 0 {
		return fmt.Errorf("messaging.ping_interval must be > 0")
	}
	if c.Messaging.PongTimeout <= 0 {
		return fmt.Errorf("messaging.pong_timeout must be > 0")
	}
	if c.Messaging.WriteTimeout <= 0 {
		return fmt.Errorf("messaging.write_timeout must be > 0")
	}

	// Client
	if c.Client.RosterThrottle <= 0 {
		return fmt.Errorf("client.roster_throttle must be > 0")
	}
	if c.Client.SocketOpenTimeout <= 0 {
		return fmt.Errorf("client.socket_open_timeout must be > 0")
	}
	if c.Client.HandRaiseTimeout < 0 {
		return fmt.Errorf("client.hand_raise_timeout must be >= 0")
	}
	if c.Client.LookupMaxAttempts < 0 {
		return fmt.Errorf("client.lookup_max_attempts must be >= 0")
	}

	// Meetings
	if c.Meetings.RecordTTL <= 0 {
		return fmt.Errorf("meetings.record_ttl must be > 0")
	}
	if c.Meetings.DefaultRegion == "" {
		return fmt.Errorf("meetings.default_region must not be empty")
	}
	if c.Meetings.JWTSecret == "" {
		return fmt.Errorf("meetings.jwt_secret must not be empty")
	}
	if c.Meetings.TokenTTL <= 0 {
		return fmt.Errorf("meetings.token_ttl must be > 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Messaging.MessagesPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.messaging.messages_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Messaging.Burst <= 0 {
			return fmt.Errorf("rate_limiting.messaging.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Messaging.MaxMessageSizeBytes < 0 {
			return fmt.Errorf("rate_limiting.messaging.max_message_size_bytes must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Messaging.PublicURL = "ws://localhost:8080/messaging"
	cfg.Messaging.PingInterval = 30 * time.Second
	cfg.Messaging.PongTimeout = 60 * time.Second
	cfg.Messaging.WriteTimeout = 10 * time.Second

	cfg.Client.RosterThrottle = 400 * time.Millisecond
	cfg.Client.SocketOpenTimeout = 10 * time.Second
	cfg.Client.HandRaiseTimeout = 10 * time.Second
	cfg.Client.LookupMaxAttempts = 3
	cfg.Client.LookupInitialDelay = 200 * time.Millisecond

	cfg.Meetings.RecordTTL = 24 * time.Hour
	cfg.Meetings.DefaultRegion = "us-east-1"
	cfg.Meetings.JWTSecret = "change-me-in-production"
	cfg.Meetings.TokenTTL = 24 * time.Hour

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.MetricsPath = "/metrics"

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "lectern"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.Messaging.MessagesPerSecond = 100
	cfg.RateLimiting.Messaging.Burst = 200
	cfg.RateLimiting.Messaging.MaxMessageSizeBytes = 64 * 1024

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("LECTERN_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if u := os.Getenv("LECTERN_MESSAGING_URL"); u != "" {
		c.Messaging.PublicURL = u
	}
	if level := os.Getenv("LECTERN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("LECTERN_JWT_SECRET"); secret != "" {
		c.Meetings.JWTSecret = secret
	}
	if addr := os.Getenv("LECTERN_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
