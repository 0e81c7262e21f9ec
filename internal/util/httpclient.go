package util

import (
	"net/http"
	"time"
)

// NewHTTPClient builds an HTTP client with the given timeout and proxy
// configuration
func NewHTTPClient(timeout time.Duration, httpProxy, httpsProxy string) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: NewProxyFunc(httpProxy, httpsProxy),
		},
	}
}
