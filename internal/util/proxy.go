// Package util holds small helpers shared by the provider clients.
package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc returns the proxy selector for provider HTTP clients.
//
// Explicit URLs replace HTTP_PROXY/HTTPS_PROXY from the environment; an
// HTTP proxy alone is used for both schemes. noProxy, when set, replaces
// NO_PROXY. Loopback hosts are never proxied.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()

	if httpProxy != "" || httpsProxy != "" {
		if httpsProxy == "" {
			httpsProxy = httpProxy
		}
		cfg = &httpproxy.Config{
			HTTPProxy:  httpProxy,
			HTTPSProxy: httpsProxy,
			NoProxy:    cfg.NoProxy,
		}
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}
