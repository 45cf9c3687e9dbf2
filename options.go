// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// Token sets the API token sent as a bearer credential
func Token(token string) func(*Client) {
	return func(c *Client) {
		c.token = token
	}
}

// VDOM sets the default virtual domain for every request
func VDOM(vdom string) func(*Client) {
	return func(c *Client) {
		c.VDOM = vdom
	}
}

// APIPrefix sets the path prefix of the configuration API (default: /api/v2/cmdb)
func APIPrefix(prefix string) func(*Client) {
	return func(c *Client) {
		c.APIPrefix = prefix
	}
}

// VerifyCertificate enables or disables TLS certificate verification (default: true)
//
// WARNING: Disabling certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks. Only use this in testing environments.
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// TLSCA sets a PEM CA bundle used to verify the appliance certificate
func TLSCA(caPath string) func(*Client) {
	return func(c *Client) {
		c.tlsCA = caPath
	}
}

// RequestTimeout sets the default per-request timeout (default: 30s)
func RequestTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.RequestTimeout = duration
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
//
// TLS options are ignored when a custom client is supplied.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Request and response bodies logged at Debug level are redacted.
//
// Example:
//
//	logger := cmdb.NewDefaultLogger(cmdb.LogLevelDebug)
//	client, _ := cmdb.NewClient("https://192.168.1.99",
//	    cmdb.Token("secret"),
//	    cmdb.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs (default: false)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// SerializeWrites makes tables built by Client.Table hold a per-path mutex
// across each fetch and write (default: false).
//
// This prevents lost updates between goroutines sharing one client. It does
// not protect against other clients writing the same resource.
func SerializeWrites(enabled bool) func(*Client) {
	return func(c *Client) {
		c.serializeWrites = enabled
	}
}
