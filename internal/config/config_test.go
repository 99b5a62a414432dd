package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	setDefaults(cfg)

	require.Equal(t, defaultServiceName, cfg.Service.Name)
	require.Equal(t, defaultVersion, cfg.Service.Version)
	require.Equal(t, defaultServicePort, cfg.Service.Port)
	require.Equal(t, defaultBufferSize, cfg.Service.BufferSize)
	require.Equal(t, defaultFlushThresh, cfg.Service.FlushThreshold)
	require.Equal(t, defaultFlushIntervalS*time.Second, cfg.Service.FlushInterval)
	require.Equal(t, defaultRecentQueryLimit, cfg.Service.QueryLimit)
	require.Equal(t, defaultRecentQueryMaxLim, cfg.Service.QueryMaxLimit)

	require.Equal(t, defaultThreshold, cfg.Detector.Threshold)
	require.Equal(t, defaultTimeWindowMS*time.Millisecond, cfg.Detector.TimeWindow)
	require.InDelta(t, defaultRadiusPx, cfg.Detector.RadiusPx, 0)
	require.Equal(t, defaultMaxItems, cfg.Detector.MaxItems)

	require.Equal(t, defaultSessionTTLMin*time.Minute, cfg.Sessions.TTL)
	require.Equal(t, defaultSweepIntervalMin*time.Minute, cfg.Sessions.SweepInterval)
	require.Equal(t, defaultMaxSessions, cfg.Sessions.MaxSessions)

	require.Equal(t, defaultDBHost, cfg.Database.Host)
	require.Equal(t, defaultDBPort, cfg.Database.Port)
	require.Equal(t, defaultDBUser, cfg.Database.User)
	require.Equal(t, defaultDBName, cfg.Database.Database)
	require.Equal(t, defaultDBSSLMode, cfg.Database.SSLMode)

	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, defaultRedisAddress, cfg.Redis.Address)
	require.Equal(t, defaultRedisStream, cfg.Redis.Stream)

	require.Equal(t, defaultMaxEventsPerMinute, cfg.RateLimit.MaxEventsPerMinute)
	require.Equal(t, defaultWindowSeconds, cfg.RateLimit.WindowSeconds)

	require.Equal(t, defaultLoggingLevel, cfg.Logging.Level)
	require.Equal(t, defaultLoggingFmt, cfg.Logging.Format)
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Detector.Threshold = 5
	cfg.Detector.TimeWindow = 2 * time.Second
	cfg.Detector.RadiusPx = 50
	cfg.Detector.MaxItems = 7
	setDefaults(cfg)

	require.Equal(t, 5, cfg.Detector.Threshold)
	require.Equal(t, 2*time.Second, cfg.Detector.TimeWindow)
	require.InDelta(t, 50, cfg.Detector.RadiusPx, 0)
	require.Equal(t, 7, cfg.Detector.MaxItems)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Service.Port = 70000 },
			wantErr: "service.port: must be between 1 and 65535",
		},
		{
			name:    "negative max items",
			mutate:  func(c *Config) { c.Detector.MaxItems = -1 },
			wantErr: "detector.max_items: must not be negative",
		},
		{
			name:    "negative radius",
			mutate:  func(c *Config) { c.Detector.RadiusPx = -5 },
			wantErr: "detector.radius_px: must not be negative",
		},
		{
			name: "redis enabled without address",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Address = ""
			},
			wantErr: "redis.address: is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	db := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "rage_tracker",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=postgres password=secret dbname=rage_tracker sslmode=disable"
	require.Equal(t, want, db.DSN())
}
