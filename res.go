// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"github.com/tidwall/gjson"
)

// Res represents an appliance API response
type Res struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// RequestID is the X-Request-ID sent with the request
	RequestID string

	// Raw is the response body
	Raw string

	// OK indicates if the operation succeeded
	OK bool

	// Errors contains any error information
	Errors []ErrorModel
}

// GetValue retrieves a value from the response body using a gjson path.
//
// Example:
//
//	res, err := client.Get(ctx, "system/global")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hostname := res.GetValue("results.hostname").String()
func (r Res) GetValue(path string) gjson.Result {
	if r.Raw == "" {
		return gjson.Result{}
	}
	return gjson.Get(r.Raw, path)
}

// Results returns the "results" member of the response body, which holds
// the resource representation for reads
func (r Res) Results() gjson.Result {
	return r.GetValue("results")
}

// Status returns the appliance-reported status ("success" or "error")
func (r Res) Status() string {
	return r.GetValue("status").String()
}

// MKey returns the key of a created or updated collection entry, if reported
func (r Res) MKey() string {
	return r.GetValue("mkey").String()
}

// JSON returns the raw response body
func (r Res) JSON() string {
	return r.Raw
}
