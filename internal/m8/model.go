// SPDX-License-Identifier: MIT

package m8

import (
	"strings"

	"github.com/elnormous/contenttype"
)

// Model is a parsed M8 document. A Model is built fresh for every successful
// fetch and is not mutated afterwards.
type Model struct {
	BaseURL     string             `json:"m5BaseUrl" yaml:"m5BaseUrl"`
	ServiceList []ServiceListEntry `json:"serviceList" yaml:"serviceList"`
	// Legacy is set when the document used the m5Url/serviceAccessInformation shape.
	Legacy bool `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

// ServiceListEntry is one media service offered by the M8 document.
type ServiceListEntry struct {
	ProvisioningSessionID string       `json:"provisioningSessionId" yaml:"provisioningSessionId"`
	Name                  string       `json:"name" yaml:"name"`
	EntryPoints           []EntryPoint `json:"entryPoints" yaml:"entryPoints"`
}

// EntryPoint is a media entry point of a service.
type EntryPoint struct {
	Locator     string   `json:"locator" yaml:"locator"`
	ContentType string   `json:"contentType" yaml:"contentType"`
	Profiles    []string `json:"profiles" yaml:"profiles"`
}

// Format is a coarse classification of an entry point's content type.
type Format string

const (
	FormatDASH        Format = "dash"
	FormatHLS         Format = "hls"
	FormatProgressive Format = "progressive"
	FormatUnknown     Format = "unknown"
)

// Len returns the number of service entries.
func (m Model) Len() int {
	return len(m.ServiceList)
}

// Entry returns the service entry at index i.
func (m Model) Entry(i int) (ServiceListEntry, bool) {
	if i < 0 || i >= len(m.ServiceList) {
		return ServiceListEntry{}, false
	}
	return m.ServiceList[i], true
}

// Names returns the display labels of all entries in document order.
func (m Model) Names() []string {
	out := make([]string, 0, len(m.ServiceList))
	for _, e := range m.ServiceList {
		out = append(out, e.Label())
	}
	return out
}

// Label returns the name used when listing the entry. Legacy entries have no
// name, so the first locator (the media player entry) stands in for it.
func (e ServiceListEntry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	for _, ep := range e.EntryPoints {
		if ep.Locator != "" {
			return ep.Locator
		}
	}
	return e.ProvisioningSessionID
}

// Format classifies the entry point by content type. The content type is not
// validated; anything that does not parse is FormatUnknown.
func (ep EntryPoint) Format() Format {
	mt, err := contenttype.ParseMediaType(strings.TrimSpace(ep.ContentType))
	if err != nil {
		return FormatUnknown
	}
	sub := strings.ToLower(mt.Subtype)
	switch {
	case sub == "dash+xml":
		return FormatDASH
	case sub == "vnd.apple.mpegurl" || sub == "x-mpegurl" || sub == "mpegurl":
		return FormatHLS
	case strings.EqualFold(mt.Type, "video") || strings.EqualFold(mt.Type, "audio"):
		return FormatProgressive
	default:
		return FormatUnknown
	}
}
