package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "rage-tracker"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultBufferSize   = 1000
	defaultFlushThresh  = 100
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
	defaultDBHost       = "localhost"
	defaultDBPort       = 5432
	defaultDBName       = "rage_tracker"
	defaultDBUser       = "postgres"
	defaultDBSSLMode    = "disable"
	defaultRedisAddress = "localhost:6379"
	defaultRedisStream  = "rage-clicks"

	defaultThreshold = 3
	defaultRadiusPx  = 30.0
	defaultMaxItems  = 20

	defaultMaxEventsPerMinute = 120
	defaultWindowSeconds      = 60

	defaultFlushIntervalS    = 1
	defaultTimeWindowMS      = 1000
	defaultSessionTTLMin     = 30
	defaultSweepIntervalMin  = 5
	defaultMaxSessions       = 10000
	defaultRecentQueryLimit  = 50
	defaultRecentQueryMaxLim = 500
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Detector  DetectorConfig  `yaml:"detector"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	Port           int           `env:"RAGE_TRACKER_PORT" yaml:"port"`
	Debug          bool          `env:"APP_DEBUG"         yaml:"debug"`
	BufferSize     int           `yaml:"buffer_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	FlushThreshold int           `yaml:"flush_threshold"`
	QueryLimit     int           `yaml:"query_limit"`
	QueryMaxLimit  int           `yaml:"query_max_limit"`
}

// DetectorConfig holds the clustering parameters applied to every
// per-session detector.
type DetectorConfig struct {
	Threshold  int           `yaml:"threshold"`
	TimeWindow time.Duration `yaml:"time_window"`
	RadiusPx   float64       `yaml:"radius_px"`
	MaxItems   int           `yaml:"max_items"`
}

// SessionsConfig holds session registry limits.
type SessionsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxSessions   int           `yaml:"max_sessions"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_RAGE_TRACKER_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_RAGE_TRACKER_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_RAGE_TRACKER_USER"     yaml:"user"`
	Password string `env:"POSTGRES_RAGE_TRACKER_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_RAGE_TRACKER_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_RAGE_TRACKER_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig holds the detection stream configuration.
// Publishing is optional; when disabled the service runs without Redis.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED"  yaml:"enabled"`
	Address  string `env:"REDIS_ADDR"     yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
	Stream   string `yaml:"stream"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	MaxEventsPerMinute int `yaml:"max_events_per_minute"`
	WindowSeconds      int `yaml:"window_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDetectorDefaults(&cfg.Detector)
	setSessionsDefaults(&cfg.Sessions)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.BufferSize == 0 {
		svc.BufferSize = defaultBufferSize
	}
	if svc.FlushInterval == 0 {
		svc.FlushInterval = defaultFlushIntervalS * time.Second
	}
	if svc.FlushThreshold == 0 {
		svc.FlushThreshold = defaultFlushThresh
	}
	if svc.QueryLimit == 0 {
		svc.QueryLimit = defaultRecentQueryLimit
	}
	if svc.QueryMaxLimit == 0 {
		svc.QueryMaxLimit = defaultRecentQueryMaxLim
	}
}

// setDetectorDefaults applies default values to DetectorConfig.
func setDetectorDefaults(det *DetectorConfig) {
	if det.Threshold == 0 {
		det.Threshold = defaultThreshold
	}
	if det.TimeWindow == 0 {
		det.TimeWindow = defaultTimeWindowMS * time.Millisecond
	}
	if det.RadiusPx == 0 {
		det.RadiusPx = defaultRadiusPx
	}
	if det.MaxItems == 0 {
		det.MaxItems = defaultMaxItems
	}
}

// setSessionsDefaults applies default values to SessionsConfig.
func setSessionsDefaults(s *SessionsConfig) {
	if s.TTL == 0 {
		s.TTL = defaultSessionTTLMin * time.Minute
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = defaultSweepIntervalMin * time.Minute
	}
	if s.MaxSessions == 0 {
		s.MaxSessions = defaultMaxSessions
	}
}

// setDatabaseDefaults applies default values to DatabaseConfig.
func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

// setRedisDefaults applies default values to RedisConfig.
func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
	if r.Stream == "" {
		r.Stream = defaultRedisStream
	}
}

// setRateLimitDefaults applies default values to RateLimitConfig.
func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxEventsPerMinute == 0 {
		rl.MaxEventsPerMinute = defaultMaxEventsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

// setLoggingDefaults applies default values to LoggingConfig.
func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Detector.MaxItems < 0 {
		return &ValidationError{
			Field:   "detector.max_items",
			Message: "must not be negative",
		}
	}
	if c.Detector.RadiusPx < 0 {
		return &ValidationError{
			Field:   "detector.radius_px",
			Message: "must not be negative",
		}
	}
	if c.Redis.Enabled {
		if err := ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	return nil
}
