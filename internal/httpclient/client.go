// Package httpclient builds the shared HTTP client used for CMS traffic.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// ClientConfig holds the transport knobs for the CMS client. The
// defaults are tuned for a nearby headless CMS answering small JSON
// payloads, not for long-running streaming calls.
type ClientConfig struct {
	// Timeout bounds a whole request including the body read.
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers.
	ResponseHeaderTimeout time.Duration

	// MaxIdleConnsPerHost keeps warm connections to the CMS host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout closes idle keep-alive connections.
	IdleConnTimeout time.Duration

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
}

// envDuration reads a duration override from the environment. Plain
// integers are seconds; otherwise Go duration syntax applies.
func envDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return fallback
}

// DefaultConfig returns the CMS-facing defaults. Overridable via
// CMS_HTTP_TIMEOUT and CMS_HTTP_RESPONSE_HEADER_TIMEOUT (seconds or Go
// duration format).
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:               envDuration("CMS_HTTP_TIMEOUT", 15*time.Second),
		ResponseHeaderTimeout: envDuration("CMS_HTTP_RESPONSE_HEADER_TIMEOUT", 10*time.Second),
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		DialTimeout:           5 * time.Second,
	}
}

// New creates an HTTP client from the configuration. A nil config uses
// DefaultConfig.
func New(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}
