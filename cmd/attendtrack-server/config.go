package main

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/internal/server"
	"time"
)

type HttpConfig struct {
	Port         int      `json:"port"`
	AllowOrigins []string `json:"allow_origins"`
}

type Config struct {
	BaseUrl               string  `json:"base_url"`
	JobDelayMs            int     `json:"job_delay_ms"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	CloudflareBypass      bool    `json:"cloudflare_bypass"`

	Http     HttpConfig `json:"http"`
	Database db.Config  `json:"database"`

	// FreshnessSeconds is how long a fetched report is served without
	// scraping again, 0 always scrapes.
	FreshnessSeconds    int      `json:"freshness_seconds"`
	RememberCredentials bool     `json:"remember_credentials"`
	RefreshCron         string   `json:"refresh_cron"`
	VisitExclude        []string `json:"visit_exclude"`
}

var defaultConfig = Config{
	BaseUrl:               samvidha.DefaultBaseUrl,
	JobDelayMs:            int(scheduler.MinimumDelay / time.Millisecond),
	RequestTimeoutSeconds: 30,
	Http: HttpConfig{
		Port:         3000,
		AllowOrigins: []string{"*"},
	},
	Database: db.Config{File: "attendtrack.db"},
}

func (c Config) clientOptions() samvidha.Options {
	return samvidha.Options{
		BaseUrl:           c.BaseUrl,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           time.Duration(c.RequestTimeoutSeconds) * time.Second,
		CloudflareBypass:  c.CloudflareBypass,
	}
}

func (c Config) serviceOptions() attendance.Options {
	return attendance.Options{
		FreshFor:            time.Duration(c.FreshnessSeconds) * time.Second,
		RememberCredentials: c.RememberCredentials,
		VisitExclude:        c.VisitExclude,
	}
}

func (c Config) serverConfig() server.Config {
	return server.Config{AllowOrigins: c.Http.AllowOrigins}
}
