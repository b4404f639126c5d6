// SPDX-License-Identifier: MIT

package m8

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryPoint_Format(t *testing.T) {
	tests := []struct {
		contentType string
		want        Format
	}{
		{"application/dash+xml", FormatDASH},
		{"application/vnd.apple.mpegurl", FormatHLS},
		{"application/x-mpegURL", FormatHLS},
		{"video/mp4", FormatProgressive},
		{"audio/mpeg", FormatProgressive},
		{"text/plain", FormatUnknown},
		{"", FormatUnknown},
		{"not a mime type", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryPoint{ContentType: tt.contentType}.Format())
		})
	}
}

func TestServiceListEntry_Label(t *testing.T) {
	assert.Equal(t, "Named", ServiceListEntry{Name: "Named", ProvisioningSessionID: "p"}.Label())
	assert.Equal(t, "http://a", ServiceListEntry{
		ProvisioningSessionID: "p",
		EntryPoints:           []EntryPoint{{Locator: ""}, {Locator: "http://a"}},
	}.Label())
	assert.Equal(t, "p", ServiceListEntry{ProvisioningSessionID: "p"}.Label())
}

func TestModel_Entry(t *testing.T) {
	m := Model{ServiceList: []ServiceListEntry{{Name: "a"}, {Name: "b"}}}

	e, ok := m.Entry(1)
	assert.True(t, ok)
	assert.Equal(t, "b", e.Name)

	_, ok = m.Entry(2)
	assert.False(t, ok)
	_, ok = m.Entry(-1)
	assert.False(t, ok)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "abc", StripQuotes(`"abc"`))
	assert.Equal(t, "a b", StripQuotes(`a" "b`))
	assert.Equal(t, "", StripQuotes(`""`))
}
