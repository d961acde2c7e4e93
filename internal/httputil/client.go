// Package httputil constructs the HTTP client used for source downloads.
package httputil

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultMaxRedirects bounds redirect chains when following Location
// headers.
const DefaultMaxRedirects = 10

// New creates the download client. There is no overall request timeout:
// source archives can be arbitrarily large and the environment is
// trusted. Connection setup still has bounded phases, and redirect
// chains are capped.
func New(maxRedirects int) *http.Client {
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
