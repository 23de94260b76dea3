// Package httpclient builds the HTTP clients the provider adapters share.
package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"time"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}

// NewSERPClient creates the client for HTML search endpoints. It carries a
// cookie jar because some SERP backends bounce cookieless clients, and no
// client-level timeout: the per-attempt budget comes from the request context.
func NewSERPClient() *http.Client {
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     60 * time.Second,
		},
	}
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}
	return client
}
