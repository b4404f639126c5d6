// SPDX-License-Identifier: MIT

package m8

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	keyBaseURL       = "m5BaseUrl"
	keyLegacyBaseURL = "m5Url"
	keyServiceList   = "serviceList"
	keyLegacyList    = "serviceAccessInformation"
	keyEntryPoints   = "entryPoints"
	keyProfiles      = "profiles"
	keyStreaming     = "streamingAccess"
	keyPlayerEntry   = "mediaPlayerEntry"
)

// FieldError locates a structural error inside the document.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Parse walks an M8 JSON document into a Model.
func Parse(data []byte) (Model, error) {
	root, err := decode(data)
	if err != nil {
		return Model{}, err
	}
	obj, err := object(root, "$")
	if err != nil {
		return Model{}, err
	}

	if list, ok := obj[keyServiceList]; ok && list != nil {
		return parseCurrent(obj)
	}
	if list, ok := obj[keyLegacyList]; ok && list != nil {
		return parseLegacy(obj)
	}
	return Model{}, ErrMissingServiceList
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return root, nil
}

func baseURL(obj map[string]any, primary, fallback string) string {
	if v, ok := obj[primary]; ok && v != nil {
		return text(v)
	}
	return field(obj, fallback)
}

func parseCurrent(obj map[string]any) (Model, error) {
	items, err := array(obj, keyServiceList)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		BaseURL:     baseURL(obj, keyBaseURL, keyLegacyBaseURL),
		ServiceList: make([]ServiceListEntry, 0, len(items)),
	}
	for i, item := range items {
		entry, err := parseServiceListEntry(item, fmt.Sprintf("%s[%d]", keyServiceList, i))
		if err != nil {
			return Model{}, err
		}
		m.ServiceList = append(m.ServiceList, entry)
	}
	return m, nil
}

func parseServiceListEntry(v any, path string) (ServiceListEntry, error) {
	obj, err := object(v, path)
	if err != nil {
		return ServiceListEntry{}, err
	}
	eps, err := array(obj, keyEntryPoints)
	if err != nil {
		return ServiceListEntry{}, prefix(path, err)
	}

	entry := ServiceListEntry{
		ProvisioningSessionID: field(obj, "provisioningSessionId"),
		Name:                  field(obj, "name"),
		EntryPoints:           make([]EntryPoint, 0, len(eps)),
	}
	for i, ep := range eps {
		parsed, err := parseEntryPoint(ep, fmt.Sprintf("%s.%s[%d]", path, keyEntryPoints, i))
		if err != nil {
			return ServiceListEntry{}, err
		}
		entry.EntryPoints = append(entry.EntryPoints, parsed)
	}
	return entry, nil
}

func parseEntryPoint(v any, path string) (EntryPoint, error) {
	obj, err := object(v, path)
	if err != nil {
		return EntryPoint{}, err
	}
	profiles, err := array(obj, keyProfiles)
	if err != nil {
		return EntryPoint{}, prefix(path, err)
	}

	ep := EntryPoint{
		Locator:     field(obj, "locator"),
		ContentType: field(obj, "contentType"),
		Profiles:    make([]string, 0, len(profiles)),
	}
	for _, p := range profiles {
		ep.Profiles = append(ep.Profiles, text(p))
	}
	return ep, nil
}

func parseLegacy(obj map[string]any) (Model, error) {
	items, err := array(obj, keyLegacyList)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		BaseURL:     baseURL(obj, keyLegacyBaseURL, keyBaseURL),
		ServiceList: make([]ServiceListEntry, 0, len(items)),
		Legacy:      true,
	}
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", keyLegacyList, i)
		sai, err := object(item, path)
		if err != nil {
			return Model{}, err
		}
		access, err := object(sai[keyStreaming], path+"."+keyStreaming)
		if err != nil {
			return Model{}, err
		}
		m.ServiceList = append(m.ServiceList, ServiceListEntry{
			ProvisioningSessionID: field(sai, "provisioningSessionId"),
			EntryPoints: []EntryPoint{{
				Locator:  field(access, keyPlayerEntry),
				Profiles: []string{},
			}},
		})
	}
	return m, nil
}

func prefix(path string, err error) error {
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{Field: path + "." + fe.Field, Err: fe.Err}
	}
	return err
}
