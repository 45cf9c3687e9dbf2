// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
)

// TestConcurrentGetOperations tests that reads can run concurrently on one client
func TestConcurrentGetOperations(t *testing.T) {
	appliance := newFakeAppliance(map[string]string{"system/global": `{"hostname":"fw01"}`})
	client := newTestClient(t, appliance)

	numOps := 10
	var wg sync.WaitGroup
	errChan := make(chan error, numOps)

	for i := 0; i < numOps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := client.Get(context.Background(), "system/global")
			if err != nil {
				errChan <- err
				return
			}
			if res.GetValue("results.hostname").String() != "fw01" {
				errChan <- fmt.Errorf("unexpected response: %s", res.Raw)
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent Get failed: %v", err)
	}
}

// TestSerializeWritesPreventsLostUpdates tests that tables sharing a parent
// path share one lock when SerializeWrites is enabled
func TestSerializeWritesPreventsLostUpdates(t *testing.T) {
	appliance := newFakeAppliance(map[string]string{"router/bgp": `{"as":65001,"neighbor":[]}`})
	client := newTestClient(t, appliance, SerializeWrites(true))

	schema := TableSchema{Path: "router/bgp", Field: "neighbor", Key: "ip"}

	numOps := 25
	var wg sync.WaitGroup
	errChan := make(chan error, numOps)

	for i := 0; i < numOps; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			// Each goroutine builds its own Table; the lock is per path, not per Table
			table := client.Table(schema)
			ip := fmt.Sprintf("10.0.0.%d", idx)
			if _, err := table.Upsert(context.Background(), Record{"ip": ip}); err != nil {
				errChan <- err
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent Upsert failed: %v", err)
	}

	neighbors := gjson.Get(appliance.doc("router/bgp"), "neighbor").Array()
	if len(neighbors) != numOps {
		t.Errorf("expected %d neighbors, got %d (lost updates)", numOps, len(neighbors))
	}
}

// TestPathLocks tests that equivalent paths share one mutex
func TestPathLocks(t *testing.T) {
	var locks pathLocks

	a := locks.get("router/bgp")
	b := locks.get("/router/bgp/")
	c := locks.get("router/ospf")

	if a != b {
		t.Error("expected equivalent paths to share a lock")
	}
	if a == c {
		t.Error("expected different paths to use different locks")
	}
}

// TestClientTableLockOnlyWhenSerialized tests that tables are unlocked by default
func TestClientTableLockOnlyWhenSerialized(t *testing.T) {
	client := &Client{logger: &NoOpLogger{}}
	if table := client.Table(TableSchema{Path: "router/bgp", Field: "neighbor", Key: "ip"}); table.lock != nil {
		t.Error("expected no lock without SerializeWrites")
	}

	client.serializeWrites = true
	table := client.Table(TableSchema{Path: "router/bgp", Field: "neighbor", Key: "ip", Required: []string{"ip"}})
	if table.lock == nil {
		t.Error("expected a lock with SerializeWrites")
	}
	if len(table.RequiredFields) != 1 || table.RequiredFields[0] != "ip" {
		t.Errorf("RequiredFields = %v", table.RequiredFields)
	}
}
