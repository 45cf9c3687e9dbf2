// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Command cmdbctl reads and edits appliance configuration through the CMDB API.
//
// Usage:
//
//	export CMDB_URL=https://192.168.1.99
//	export CMDB_TOKEN=secret
//	cmdbctl get system/global
//	cmdbctl table upsert router/bgp neighbor --key ip --data '{"ip":"10.0.0.2","remote-as":65002}'
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
