// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"net/url"
	"strings"
	"time"
)

// Req holds per-request settings applied via functional modifiers.
//
// Example:
//
//	res, err := client.Get(ctx, "firewall/address",
//	    cmdb.WithFilter("type==ipmask&name=@web"),
//	    cmdb.Timeout(30*time.Second))
type Req struct {
	// Query holds the URL query parameters
	Query url.Values

	// Timeout is the request-specific timeout
	// Overrides the context deadline and the client default if set
	Timeout time.Duration
}

// Timeout returns a request modifier that sets a custom timeout for the request.
//
// The timeout priority model is:
//  1. Request-specific timeout (this modifier)
//  2. Context deadline (if already set)
//  3. Client.RequestTimeout
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Query returns a request modifier that adds a query parameter
func Query(key, value string) func(*Req) {
	return func(req *Req) {
		req.Query.Add(key, value)
	}
}

// WithFilter returns a request modifier that adds filter expressions.
//
// The raw string may use any separator convention accepted by
// NormalizeFilter; each resulting expression becomes its own filter
// parameter so the appliance ANDs them.
func WithFilter(raw string) func(*Req) {
	return func(req *Req) {
		NormalizeFilter(raw).Encode(req.Query)
	}
}

// WithFilters returns a request modifier that adds an already built Filter
func WithFilters(f Filter) func(*Req) {
	return func(req *Req) {
		f.Encode(req.Query)
	}
}

// WithVDOM returns a request modifier that targets a virtual domain,
// overriding the client default
func WithVDOM(vdom string) func(*Req) {
	return func(req *Req) {
		req.Query.Set("vdom", vdom)
	}
}

// Fields returns a request modifier that limits returned attributes
func Fields(names ...string) func(*Req) {
	return func(req *Req) {
		req.Query.Set("format", strings.Join(names, "|"))
	}
}
