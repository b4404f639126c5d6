// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/cache"
	"github.com/fivegmag/awareapp/internal/config"
	"github.com/fivegmag/awareapp/internal/health"
	"github.com/fivegmag/awareapp/internal/m8"
	"github.com/fivegmag/awareapp/internal/session"
)

const catalogXML = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE properties SYSTEM "http://java.sun.com/dtd/properties.dtd">
<properties>
    <entry key="Local">m8/local.json</entry>
    <entry key="Remote">http://127.0.0.1:1/</entry>
</properties>`

const localM8 = `{"m5BaseUrl":"http://m5.example/3gpp-m5/v2/","serviceList":[
  {"provisioningSessionId":"p1","name":"One","entryPoints":[{"locator":"https://cdn.example/one.mpd","contentType":"application/dash+xml","profiles":[]}]}
]}`

// newAssets creates an assets directory and points the loader at it.
func newAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "m8"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.properties.xml"), []byte(catalogXML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m8", "local.json"), []byte(localM8), 0o600))
	t.Setenv("AWARE_ASSETS_DIR", dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "awareapp "))
}

func TestConfigValidate(t *testing.T) {
	newAssets(t)

	code, out, errOut := runCLI(t, "config", "validate")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("m8:\n  timeOut: 5s\n"), 0o600))
	code, _, errOut = runCLI(t, "config", "validate", "-f", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Configuration error")

	code, _, _ = runCLI(t, "config", "frobnicate")
	assert.Equal(t, 2, code)
}

func TestConfigDump_MasksSecrets(t *testing.T) {
	newAssets(t)
	t.Setenv("AWARE_REDIS_PASSWORD", "hunter2")

	code, out, errOut := runCLI(t, "config", "dump", "--format", "yaml")
	require.Equal(t, 0, code, errOut)
	assert.NotContains(t, out, "hunter2")

	var fc config.FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "***", fc.Cache.RedisPassword)
	assert.Equal(t, config.DefaultListenAddr, fc.API.ListenAddr)
}

func TestSources(t *testing.T) {
	newAssets(t)

	code, out, errOut := runCLI(t, "sources")
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Local "))
	assert.Contains(t, lines[2], "remote")

	code, out, _ = runCLI(t, "sources", "--json")
	require.Equal(t, 0, code)
	var sources []catalog.Source
	require.NoError(t, json.Unmarshal([]byte(out), &sources))
	assert.Equal(t, catalog.KindAsset, sources[0].Kind)
}

func TestResolve(t *testing.T) {
	newAssets(t)

	code, out, errOut := runCLI(t, "resolve", "Local")
	require.Equal(t, 0, code, errOut)
	model, err := m8.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"One"}, model.Names())

	// A location that is not a catalogue key is resolved directly.
	target := filepath.Join(t.TempDir(), "model.yaml")
	code, _, errOut = runCLI(t, "resolve", "--out", target, "m8/local.json")
	require.Equal(t, 0, code, errOut)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "m5BaseUrl: http://m5.example/3gpp-m5/v2/")

	code, _, errOut = runCLI(t, "resolve", "m8/absent.json")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, _, _ = runCLI(t, "resolve")
	assert.Equal(t, 2, code)
	code, _, _ = runCLI(t, "resolve", "--format", "xml", "Local")
	assert.Equal(t, 2, code)
}

func TestServe_SelectsDefaultSourceAndShutsDown(t *testing.T) {
	newAssets(t)
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.APIListenAddr = "127.0.0.1:0"
	cfg.CatalogWatch = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, cfg, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-errCh:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	var st session.Status
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/status")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if json.NewDecoder(resp.Body).Decode(&st) != nil {
			return false
		}
		return st.Loaded
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Local", st.SourceKey)
	assert.Equal(t, 1, st.Services)

	var hr health.HealthResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz?verbose=true")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if json.NewDecoder(resp.Body).Decode(&hr) != nil {
			return false
		}
		return hr.Checks["m8"].Status == health.StatusHealthy
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Local: 1 services (generation 1)", hr.Checks["m8"].Message)
	assert.Contains(t, hr.Checks, "m8_cache")

	// Events posted right after startup reach the representation handler.
	resp, err := http.Post("http://"+addr+"/api/v1/playback/events/format", "application/json",
		strings.NewReader(`{"containerMimeType":"video/mp4","peakBitrate":3000000,"representationId":"r1"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/playback/representation")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestCacheWiring(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	c.Set(ctx, "http://a.example/m8.json", []byte("{}"), time.Minute)
	_, ok := c.Get(ctx, "http://a.example/m8.json")
	require.True(t, ok)

	res := newCacheChecker(c).Check(ctx)
	assert.Equal(t, health.StatusHealthy, res.Status)
	assert.Equal(t, "1 entries, 1 hits, 0 misses", res.Message)

	clearOnReload(c)(catalog.New([2]string{"A", "m8/a.json"}))
	_, ok = c.Get(ctx, "http://a.example/m8.json")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().CurrentSize)
}
