// Package config loads service settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               int
	NatsURL            string
	NatsToken          string
	DatabaseURL        string
	LogLevel           string
	APIToken           string
	CORSAllowedOrigins []string
	MaxTranscriptLen   int
	ShutdownTimeout    time.Duration
}

var defaults = map[string]any{
	"ROADLOG_PORT":             8760,
	"NATS_URL":                 "nats://hermes:4222",
	"NATS_TOKEN":               "",
	"DATABASE_URL":             "",
	"LOG_LEVEL":                "info",
	"ROADLOG_API_TOKEN":        "",
	"CORS_ALLOWED_ORIGINS":     "*",
	"ROADLOG_MAX_TRANSCRIPT":   5000,
	"ROADLOG_SHUTDOWN_TIMEOUT": "10s",
}

func Load() Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	return Config{
		Port:               intOr(v, "ROADLOG_PORT"),
		NatsURL:            v.GetString("NATS_URL"),
		NatsToken:          v.GetString("NATS_TOKEN"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		APIToken:           v.GetString("ROADLOG_API_TOKEN"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MaxTranscriptLen:   intOr(v, "ROADLOG_MAX_TRANSCRIPT"),
		ShutdownTimeout:    durationOr(v, "ROADLOG_SHUTDOWN_TIMEOUT"),
	}
}

// intOr returns the key as a positive int, or its default when the value
// does not parse.
func intOr(v *viper.Viper, key string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key))); err == nil && n > 0 {
		return n
	}
	return defaults[key].(int)
}

func durationOr(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
