// SPDX-License-Identifier: MIT

package catalog

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// xmlProperties mirrors the java.util.Properties XML export format.
type xmlProperties struct {
	XMLName xml.Name   `xml:"properties"`
	Comment string     `xml:"comment"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func parseXML(data []byte) (*Catalog, error) {
	var doc xmlProperties
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse properties xml: %w", err)
	}
	c := New()
	for i, e := range doc.Entries {
		if e.Key == "" {
			return nil, fmt.Errorf("parse properties xml: entry %d has no key", i)
		}
		c.put(e.Key, e.Value)
	}
	return c, nil
}
