// Package httpclient builds tuned *http.Client values for upstream APIs.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config holds transport settings. Field tags follow the env convention used
// by the service configuration.
type Config struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`

	// ResponseHeaderTimeout bounds the wait for response headers.
	ResponseHeaderTimeout time.Duration `env:"HTTP_CLIENT_RESPONSE_HEADER_TIMEOUT" envDefault:"20s"`

	DialTimeout         time.Duration `env:"HTTP_CLIENT_DIAL_TIMEOUT" envDefault:"10s"`
	KeepAlive           time.Duration `env:"HTTP_CLIENT_KEEP_ALIVE" envDefault:"30s"`
	TLSHandshakeTimeout time.Duration `env:"HTTP_CLIENT_TLS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	IdleConnTimeout     time.Duration `env:"HTTP_CLIENT_IDLE_CONN_TIMEOUT" envDefault:"90s"`

	MaxIdleConns        int `env:"HTTP_CLIENT_MAX_IDLE_CONNS" envDefault:"50"`
	MaxIdleConnsPerHost int `env:"HTTP_CLIENT_MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
}

// DefaultConfig returns the defaults declared in the Config tags.
func DefaultConfig() Config {
	return Config{
		Timeout:               30 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
	}
}

// New creates an HTTP client from cfg. Zero fields fall back to DefaultConfig.
func New(cfg Config) *http.Client {
	def := DefaultConfig()
	orDefault := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   orDefault(cfg.DialTimeout, def.DialTimeout),
			KeepAlive: orDefault(cfg.KeepAlive, def.KeepAlive),
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       orDefault(cfg.IdleConnTimeout, def.IdleConnTimeout),
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, def.TLSHandshakeTimeout),
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, def.ResponseHeaderTimeout),
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   orDefault(cfg.Timeout, def.Timeout),
	}
}
