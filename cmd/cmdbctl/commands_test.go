// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/netascode/go-cmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// appliance serves documents keyed by path and records every request
type appliance struct {
	mu       sync.Mutex
	docs     map[string]string
	requests []string
}

func (a *appliance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, cmdb.DefaultAPIPrefix+"/")
	a.requests = append(a.requests, r.Method+" "+path)
	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server

	switch r.Method {
	case http.MethodGet:
		doc, ok := a.docs[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":"error","http_status":404}`)
			return
		}
		fmt.Fprintf(w, `{"results":%s,"status":"success","http_status":200}`, doc)
	case http.MethodPut:
		a.docs[path] = string(body)
		fmt.Fprint(w, `{"status":"success","http_status":200}`)
	case http.MethodPost:
		name := gjson.GetBytes(body, "name").String()
		a.docs[path+"/"+name] = "[" + string(body) + "]"
		fmt.Fprintf(w, `{"status":"success","http_status":200,"mkey":%q}`, name)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *appliance) doc(path string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.docs[path]
}

func (a *appliance) log() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

// run executes cmdbctl against server with args and returns its output
func run(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	base := []string{"--env-file="}
	if server != nil {
		base = append(base, "--url", server.URL, "--token", "test-token")
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(base, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newAppliance(t *testing.T, docs map[string]string) (*appliance, *httptest.Server) {
	t.Helper()
	a := &appliance{docs: docs}
	server := httptest.NewServer(a)
	t.Cleanup(server.Close)
	return a, server
}

func TestFilterCommand(t *testing.T) {
	out, err := run(t, nil, "filter", "filter=name==web&type=@ip&&bad")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name==web\tname == web", lines[0])
	assert.Equal(t, "type=@ip\ttype =@ ip", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "\t(invalid: "), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "bad\t(invalid: "), lines[3])
}

func TestFilterCommandJSON(t *testing.T) {
	out, err := run(t, nil, "filter", "--json", "a==1&filter=b==2")
	require.NoError(t, err)
	assert.JSONEq(t, `["a==1","b==2"]`, out)

	out, err = run(t, nil, "filter", "--json", "a==1")
	require.NoError(t, err)
	assert.JSONEq(t, `"a==1"`, out)
}

func TestGetCommand(t *testing.T) {
	_, server := newAppliance(t, map[string]string{
		"system/global": `{"hostname":"fw01","admintimeout":480}`,
	})

	out, err := run(t, server, "get", "system/global")
	require.NoError(t, err)
	assert.JSONEq(t, `{"hostname":"fw01","admintimeout":480}`, out)

	out, err = run(t, server, "get", "system/global", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "success", gjson.Get(out, "status").String())
}

func TestGetCommandNotFound(t *testing.T) {
	_, server := newAppliance(t, map[string]string{})

	_, err := run(t, server, "get", "system/absent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmdb.ErrNotFound))
}

func TestGetCommandRequiresURL(t *testing.T) {
	_, err := run(t, nil, "get", "system/global")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appliance URL is required")
}

func TestTableCommands(t *testing.T) {
	a, server := newAppliance(t, map[string]string{
		"router/bgp": `{"as":65001,"neighbor":[{"ip":"10.0.0.1","desc":"a"},{"ip":"10.0.0.2","desc":"b"}]}`,
	})

	out, err := run(t, server, "table", "list", "router/bgp", "neighbor", "--key", "ip")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ip":"10.0.0.1","desc":"a"},{"ip":"10.0.0.2","desc":"b"}]`, out)

	out, err = run(t, server, "table", "get", "router/bgp", "neighbor", "10.0.0.2", "--key", "ip")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"10.0.0.2","desc":"b"}`, out)

	_, err = run(t, server, "table", "upsert", "router/bgp", "neighbor", "--key", "ip",
		"--data", `{"ip":"10.0.0.2","desc":"c"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ip":"10.0.0.1","desc":"a"},{"ip":"10.0.0.2","desc":"c"}]`,
		gjson.Get(a.doc("router/bgp"), "neighbor").Raw)
	assert.Equal(t, int64(65001), gjson.Get(a.doc("router/bgp"), "as").Int())

	_, err = run(t, server, "table", "delete", "router/bgp", "neighbor", "10.0.0.1", "--key", "ip")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ip":"10.0.0.2","desc":"c"}]`, gjson.Get(a.doc("router/bgp"), "neighbor").Raw)

	_, err = run(t, server, "table", "get", "router/bgp", "neighbor", "10.0.0.1", "--key", "ip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no neighbor record")
}

func TestTableSetCommand(t *testing.T) {
	a, server := newAppliance(t, map[string]string{
		"system/zone": `{"name":"lan","interface":[]}`,
	})

	_, err := run(t, server, "table", "set", "system/zone", "interface", "--key", "interface-name",
		"--data", `["port1","port2"]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"interface-name":"port1"},{"interface-name":"port2"}]`,
		gjson.Get(a.doc("system/zone"), "interface").Raw)

	_, err = run(t, server, "table", "set", "system/zone", "interface", "--key", "interface-name",
		"--data", "port3")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"interface-name":"port3"}]`, gjson.Get(a.doc("system/zone"), "interface").Raw)
}

func TestTableCommandWithSchema(t *testing.T) {
	a, server := newAppliance(t, map[string]string{
		"router/bgp": `{"neighbor":[]}`,
	})
	schemas := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(schemas, []byte(`
tables:
  - name: bgp-neighbor
    path: router/bgp
    field: neighbor
    key: ip
`), 0o600))

	out, err := run(t, server, "--schemas", schemas, "table", "schemas")
	require.NoError(t, err)
	assert.Equal(t, "bgp-neighbor\trouter/bgp\tneighbor\tkey=ip\n", out)

	_, err = run(t, server, "--schemas", schemas, "table", "upsert", "--schema", "bgp-neighbor",
		"--data", `{"ip":"10.0.0.9","remote-as":65009}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ip":"10.0.0.9","remote-as":65009}]`, gjson.Get(a.doc("router/bgp"), "neighbor").Raw)

	_, err = run(t, server, "--schemas", schemas, "table", "list", "--schema", "ospf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table schema "ospf"`)
}

func TestTableCommandArgumentErrors(t *testing.T) {
	_, server := newAppliance(t, map[string]string{})

	_, err := run(t, server, "table", "list", "router/bgp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires PATH FIELD")

	_, err = run(t, server, "table", "get", "router/bgp", "neighbor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 argument(s)")

	_, err = run(t, server, "table", "upsert", "router/bgp", "neighbor", "--data", `[1,2]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--data")
}

func TestUpsertCommand(t *testing.T) {
	a, server := newAppliance(t, map[string]string{})

	out, err := run(t, server, "upsert", "firewall/address", "--pk", "name",
		"--data", `{"name":"web","subnet":"10.0.0.1 255.255.255.255"}`)
	require.NoError(t, err)
	assert.Equal(t, "web", gjson.Get(out, "mkey").String())

	_, err = run(t, server, "upsert", "firewall/address",
		"--data", `{"name":"web","subnet":"10.0.0.2 255.255.255.255"}`)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2 255.255.255.255", gjson.Get(a.doc("firewall/address/web"), "subnet").String())

	assert.Equal(t, []string{
		"GET firewall/address/web",
		"POST firewall/address",
		"GET firewall/address/web",
		"PUT firewall/address/web",
	}, a.log())
}
