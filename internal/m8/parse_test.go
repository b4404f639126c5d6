// SPDX-License-Identifier: MIT

package m8

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParse_CurrentDocument(t *testing.T) {
	m, err := Parse(readFixture(t, "m8_current.json"))
	require.NoError(t, err)

	want := Model{
		BaseURL: "http://10.147.67.10:7778/3gpp-m5/v2/",
		ServiceList: []ServiceListEntry{
			{
				ProvisioningSessionID: "d54a1fcc-d411-4e32-807b-2c60dbaeaf5f",
				Name:                  "BBB DASH",
				EntryPoints: []EntryPoint{
					{
						Locator:     "https://livesim.dashif.org/livesim/chunkdur_1/ato_7/testpic4_8s/Manifest.mpd",
						ContentType: "application/dash+xml",
						Profiles:    []string{"urn:mpeg:dash:profile:isoff-live:2011"},
					},
					{
						Locator:     "https://example.com/bbb/master.m3u8",
						ContentType: "application/vnd.apple.mpegurl",
						Profiles:    []string{},
					},
				},
			},
			{
				ProvisioningSessionID: "a5c2b9e0-0001-4e32-807b-2c60dbaeaf5f",
				Name:                  "Tears of Steel",
				EntryPoints:           []EntryPoint{},
			},
			{
				ProvisioningSessionID: "a5c2b9e0-0002-4e32-807b-2c60dbaeaf5f",
				Name:                  "Radio Live",
				EntryPoints:           []EntryPoint{},
			},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ServiceListLengthMatchesInput(t *testing.T) {
	doc := []byte(`{"m5BaseUrl":"http://m5/","serviceList":[{"name":"a"},{"name":"b"},{"name":"c"},{"name":"d"}]}`)
	m, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []string{"a", "b", "c", "d"}, m.Names())
}

func TestParse_EmptyAndMissingArrays(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing entryPoints", doc: `{"serviceList":[{"name":"x"}]}`},
		{name: "empty entryPoints", doc: `{"serviceList":[{"name":"x","entryPoints":[]}]}`},
		{name: "null entryPoints", doc: `{"serviceList":[{"name":"x","entryPoints":null}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			require.Equal(t, 1, m.Len())
			assert.NotNil(t, m.ServiceList[0].EntryPoints)
			assert.Empty(t, m.ServiceList[0].EntryPoints)
		})
	}

	m, err := Parse([]byte(`{"serviceList":[{"entryPoints":[{"locator":"l"},{"locator":"k","profiles":[]}]}]}`))
	require.NoError(t, err)
	for _, ep := range m.ServiceList[0].EntryPoints {
		assert.NotNil(t, ep.Profiles)
		assert.Empty(t, ep.Profiles)
	}
}

func TestParse_EmptyServiceList(t *testing.T) {
	m, err := Parse([]byte(`{"m5BaseUrl":"http://m5/","serviceList":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "http://m5/", m.BaseURL)
}

func TestParse_QuoteStripping(t *testing.T) {
	doc := `{
		"m5BaseUrl": "http://\"quoted\"/",
		"serviceList": [{
			"provisioningSessionId": 42,
			"name": "\"Named\"",
			"entryPoints": [{
				"locator": "https://example.com/a.mpd",
				"contentType": true,
				"profiles": ["\"p1\"", 7, {"k": "v"}]
			}]
		}]
	}`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "http://quoted/", m.BaseURL)
	entry := m.ServiceList[0]
	assert.Equal(t, "42", entry.ProvisioningSessionID)
	assert.Equal(t, "Named", entry.Name)
	ep := entry.EntryPoints[0]
	assert.Equal(t, "true", ep.ContentType)
	assert.Equal(t, []string{"p1", "7", "{k:v}"}, ep.Profiles)
}

func TestParse_MissingScalarsAreEmpty(t *testing.T) {
	m, err := Parse([]byte(`{"serviceList":[{"entryPoints":[{}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, m.BaseURL)
	assert.Empty(t, m.ServiceList[0].Name)
	assert.Empty(t, m.ServiceList[0].ProvisioningSessionID)
	assert.Empty(t, m.ServiceList[0].EntryPoints[0].Locator)
}

func TestParse_LegacyDocument(t *testing.T) {
	m, err := Parse(readFixture(t, "m8_legacy.json"))
	require.NoError(t, err)

	assert.True(t, m.Legacy)
	assert.Equal(t, "http://10.147.67.10:7778/3gpp-m5/v2/", m.BaseURL)
	require.Equal(t, 2, m.Len())
	first := m.ServiceList[0]
	assert.Equal(t, "32b4b3e2-1c8a-11ee-9b16-d75e0f3e4b0e", first.ProvisioningSessionID)
	assert.Empty(t, first.Name)
	require.Len(t, first.EntryPoints, 1)
	assert.Equal(t, "https://livesim.dashif.org/livesim/testpic_2s/Manifest.mpd", first.EntryPoints[0].Locator)
	assert.Equal(t, "https://livesim.dashif.org/livesim/testpic_2s/Manifest.mpd", first.Label())
}

func TestParse_CurrentShapeWinsOverLegacy(t *testing.T) {
	doc := `{"m5BaseUrl":"new","m5Url":"old","serviceList":[{"name":"n"}],"serviceAccessInformation":[]}`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.False(t, m.Legacy)
	assert.Equal(t, "new", m.BaseURL)
	assert.Equal(t, 1, m.Len())
}

func TestParse_BaseURLFallsBackAcrossShapes(t *testing.T) {
	m, err := Parse([]byte(`{"m5Url":"http://legacy-m5/","serviceList":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "http://legacy-m5/", m.BaseURL)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "empty body", doc: ``, want: ErrMalformed},
		{name: "truncated", doc: `{"serviceList":[`, want: ErrMalformed},
		{name: "trailing garbage", doc: `{"serviceList":[]} {}`, want: ErrMalformed},
		{name: "top level array", doc: `[]`, want: ErrNotObject},
		{name: "no list", doc: `{"m5BaseUrl":"x"}`, want: ErrMissingServiceList},
		{name: "null list", doc: `{"serviceList":null}`, want: ErrMissingServiceList},
		{name: "list not array", doc: `{"serviceList":"nope"}`, want: ErrInvalidArray},
		{name: "item not object", doc: `{"serviceList":["nope"]}`, want: ErrNotObject},
		{name: "entryPoints not array", doc: `{"serviceList":[{"entryPoints":{}}]}`, want: ErrInvalidArray},
		{name: "profiles not array", doc: `{"serviceList":[{"entryPoints":[{"profiles":"p"}]}]}`, want: ErrInvalidArray},
		{name: "legacy without streamingAccess", doc: `{"serviceAccessInformation":[{"provisioningSessionId":"x"}]}`, want: ErrNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_FieldErrorPath(t *testing.T) {
	_, err := Parse([]byte(`{"serviceList":[{"name":"ok"},{"entryPoints":[{"profiles":1}]}]}`))
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "serviceList[1].entryPoints[0].profiles", fe.Field)
}
