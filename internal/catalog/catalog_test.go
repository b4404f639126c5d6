// SPDX-License-Identifier: MIT

package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_XML(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "config.properties.xml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Local M8 (bundled)", "Local M8 (legacy)", "5GMS AF (lab)"}, c.Keys())

	src, err := c.Lookup("5GMS AF (lab)")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.178.55:3003/", src.Location)
	assert.Equal(t, KindRemote, src.Kind)

	src, err = c.Lookup("Local M8 (bundled)")
	require.NoError(t, err)
	assert.Equal(t, "m8/config.json", src.Location)
	assert.Equal(t, KindAsset, src.Kind)
}

func TestLoad_Properties(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "config.properties"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Local M8 (bundled)",
		"Remote:AF",
		"Spaced",
		"Continued",
		"Unicode Key",
	}, c.Keys())

	want := map[string]string{
		"Local M8 (bundled)": "m8/override.json",
		"Remote:AF":          "http://192.168.178.55:3003/",
		"Spaced":             "m8/spaced.json",
		"Continued":          "m8/continued.json",
		"Unicode Key":        "m8/café.json",
	}
	for key, loc := range want {
		src, err := c.Lookup(key)
		require.NoError(t, err, key)
		assert.Equal(t, loc, src.Location, key)
	}
}

func TestLookup_UnknownKey(t *testing.T) {
	c := New([2]string{"a", "m8/a.json"})
	_, err := c.Lookup("b")
	assert.ErrorIs(t, err, ErrUnknownKey)

	var nilCatalog *Catalog
	_, err = nilCatalog.Lookup("a")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, 0, nilCatalog.Len())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(".json", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse(".xml", []byte(`<properties></properties>`))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(".xml", []byte(`<properties><entry>no key</entry></properties>`))
	assert.Error(t, err)

	_, err = Parse(".xml", []byte(`<properties><entry key="a">`))
	assert.Error(t, err)

	_, err = Parse(".properties", []byte("# only comments\n"))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(".properties", []byte(`k = \uZZZZ`))
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		location string
		want     Kind
	}{
		{"http://example.com/", KindRemote},
		{"https://example.com/m8/", KindRemote},
		{"m8/config.json", KindAsset},
		{"/abs/path/config.json", KindAsset},
		{"", KindAsset},
		{"::not a url", KindAsset},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.location))
		})
	}
}

func TestSources_Order(t *testing.T) {
	c := New([2]string{"b", "http://b/"}, [2]string{"a", "m8/a.json"}, [2]string{"b", "http://b2/"})
	srcs := c.Sources()
	require.Len(t, srcs, 2)
	assert.Equal(t, Source{Key: "b", Location: "http://b2/", Kind: KindRemote}, srcs[0])
	assert.Equal(t, Source{Key: "a", Location: "m8/a.json", Kind: KindAsset}, srcs[1])
	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("c"))
}
