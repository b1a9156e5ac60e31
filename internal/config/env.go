package config

import "os"

// Default endpoints.
const (
	DefaultConsoleURL = "http://127.0.0.1:8080"
	DefaultSensorURL  = "ws://127.0.0.1:9000/sensors"
)

// Environment variables that override file values.
const (
	EnvConsoleURL = "LIGHTNAV_CONSOLE_URL"
	EnvSensorURL  = "LIGHTNAV_SENSOR_URL"
	EnvRedisAddr  = "LIGHTNAV_REDIS_ADDR"
	EnvLogLevel   = "LIGHTNAV_LOG_LEVEL"
)

// ApplyEnv overrides file values with any LIGHTNAV_* variables that are set.
func (c *Config) ApplyEnv() {
	c.Console.URL = envOr(EnvConsoleURL, c.Console.URL)
	c.Sensors.URL = envOr(EnvSensorURL, c.Sensors.URL)
	c.Fixes.RedisAddr = envOr(EnvRedisAddr, c.Fixes.RedisAddr)
	c.Log.Level = envOr(EnvLogLevel, c.Log.Level)
}

// envOr returns the value of key, falling back to def if not set.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
