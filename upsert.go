// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"context"
	"fmt"
)

// Resource is the accessor for a keyed collection on the appliance.
// The HTTP implementation is Collection.
type Resource interface {
	Exists(ctx context.Context, key any) (bool, error)
	Create(ctx context.Context, fields Record) (Res, error)
	Update(ctx context.Context, fields Record) (Res, error)
}

// UpsertResource creates the resource identified by fields[primaryKey] if it
// does not exist and updates it otherwise.
//
// This is a read-then-write sequence with no locking: two callers racing on
// the same key can both see it absent and both Create, in which case the
// appliance rejects the second Create.
//
// Example:
//
//	addresses := client.Collection("firewall/address", "name")
//	res, err := cmdb.UpsertResource(ctx, addresses, "name", cmdb.Record{
//	    "name":   "web-01",
//	    "subnet": "10.1.1.10 255.255.255.255",
//	})
func UpsertResource(ctx context.Context, r Resource, primaryKey string, fields Record) (Res, error) {
	if !fields.Has(primaryKey) {
		return Res{}, &MissingKeyError{Operation: "upsert", Key: primaryKey}
	}
	key := fields[primaryKey]

	exists, err := r.Exists(ctx, key)
	if err != nil {
		return Res{}, fmt.Errorf("upsert %v: %w", key, err)
	}
	if exists {
		res, err := r.Update(ctx, fields)
		if err != nil {
			return res, fmt.Errorf("upsert %v: %w", key, err)
		}
		return res, nil
	}

	res, err := r.Create(ctx, fields)
	if err != nil {
		return res, fmt.Errorf("upsert %v: %w", key, err)
	}
	return res, nil
}
