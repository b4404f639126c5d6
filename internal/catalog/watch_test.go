// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const catalogV1 = `<properties><entry key="one">m8/one.json</entry></properties>`
const catalogV2 = `<properties><entry key="one">m8/one.json</entry><entry key="two">http://two/</entry></properties>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestHolder_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.properties.xml")
	writeFile(t, path, catalogV1)

	h, err := NewHolder(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, h.Get().Keys())

	writeFile(t, path, `<properties><entry key="broken">`)
	require.Error(t, h.Reload())
	assert.Equal(t, []string{"one"}, h.Get().Keys())

	var notified []string
	h.OnReload(func(c *Catalog) { notified = c.Keys() })
	writeFile(t, path, catalogV2)
	require.NoError(t, h.Reload())
	assert.Equal(t, []string{"one", "two"}, h.Get().Keys())
	assert.Equal(t, []string{"one", "two"}, notified)
}

func TestHolder_ReloadNotifiesListenersInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.properties.xml")
	writeFile(t, path, catalogV1)
	h, err := NewHolder(path)
	require.NoError(t, err)

	var calls []string
	h.OnReload(func(*Catalog) { calls = append(calls, "session") })
	h.OnReload(func(c *Catalog) { calls = append(calls, "cache:"+c.Keys()[0]) })

	require.NoError(t, h.Reload())
	assert.Equal(t, []string{"session", "cache:one"}, calls)
}

func TestHolder_WatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.properties.xml")
	writeFile(t, path, catalogV1)

	h, err := NewHolder(path)
	require.NoError(t, err)
	h.debounce = 20 * time.Millisecond

	reloaded := make(chan []string, 4)
	h.OnReload(func(c *Catalog) {
		select {
		case reloaded <- c.Keys():
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	go func() {
		defer wg.Done()
		close(started)
		_ = h.Watch(ctx)
	}()
	<-started

	// The watcher registers asynchronously; keep writing until a reload lands.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var got []string
loop:
	for {
		select {
		case got = <-reloaded:
			break loop
		case <-tick.C:
			writeFile(t, path, catalogV2)
		case <-deadline:
			cancel()
			wg.Wait()
			t.Fatal("watcher did not reload catalog")
		}
	}

	cancel()
	wg.Wait()
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestNewHolder_MissingFile(t *testing.T) {
	_, err := NewHolder(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}
