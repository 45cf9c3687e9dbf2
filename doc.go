// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package cmdb provides a simple, fluent API for the configuration database
// (CMDB) REST API of network security appliances.
//
// The appliance exposes two kinds of resources under /api/v2/cmdb:
// singletons such as "router/bgp" that exist exactly once and are only ever
// replaced as a whole, and keyed collections such as "firewall/address"
// that support per-entry create, update and delete.
//
// Many singletons carry table fields: ordered lists of records identified by
// a key field, e.g. the BGP neighbor list keyed by "ip". The appliance has no
// per-record endpoint for these tables. Table provides one by performing a
// read-modify-write cycle of the parent resource.
//
// # Quick Start
//
//	client, err := cmdb.NewClient("https://192.168.1.99",
//	    cmdb.Token(os.Getenv("CMDB_TOKEN")),
//	    cmdb.VDOM("root"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	res, err := client.Get(ctx, "system/global")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Hostname:", res.GetValue("results.hostname").String())
//
// # Tables
//
//	neighbors := cmdb.NewTable(client.Singleton("router/bgp"), "neighbor", "ip",
//	    cmdb.Required("ip", "remote-as"))
//
//	// Merge into the existing record or append a new one
//	_, err = neighbors.Upsert(ctx, cmdb.Record{"ip": "10.0.0.2", "remote-as": 65002})
//
//	// Remove every record with this key; absent keys are not an error
//	_, err = neighbors.Delete(ctx, "10.0.0.2")
//
//	// Replace the whole table from a flexible value
//	_, err = neighbors.Set(ctx, []map[string]any{{"ip": "10.0.0.3", "remote-as": 65003}})
//
// Table values passed to Set are normalized by NormalizeTable: a bare
// scalar, a list of scalars, a single record and a list of records are all
// accepted. Input that cannot be normalized is rejected with a
// *ValidationError before any request is made.
//
// Table schemas can also be declared in YAML and loaded with LoadSchemas.
//
// # Filters
//
// Collection reads accept filter expressions. NormalizeFilter accepts the
// different separator conventions callers use and produces one filter
// parameter per expression:
//
//	list, err := client.Collection("firewall/address", "name").
//	    List(ctx, cmdb.WithFilter("type==ipmask&name=@web"))
//
// # Error Handling
//
// Errors from the appliance are returned as *RemoteError. A 404 matches
// ErrNotFound:
//
//	if errors.Is(err, cmdb.ErrNotFound) {
//	    // handle absent resource
//	}
//
// Operations lacking a key return *MissingKeyError, again before any request.
//
// # Thread Safety
//
// Client is safe for concurrent use. Table writes are read-modify-write
// cycles; concurrent writers to the same parent may lose updates unless
// serialized with TableLock or the SerializeWrites client option.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package cmdb
