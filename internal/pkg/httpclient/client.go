// Package httpclient configures the HTTP client used to call collaborator
// services (geocoding, directions, speech).
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound creates a pooled outbound HTTP client. No timeout beyond the
// transport defaults is applied to individual calls; callers bound requests
// with their context.
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
