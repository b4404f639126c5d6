// SPDX-License-Identifier: MIT

package resolver

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/fivegmag/awareapp/internal/catalog"
	platformnet "github.com/fivegmag/awareapp/internal/platform/net"
)

// Classify decides how a location is fetched: absolute URIs are remote,
// anything else names a bundled asset.
func Classify(location string) (catalog.Kind, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if u.IsAbs() {
		return catalog.KindRemote, nil
	}
	return catalog.KindAsset, nil
}

// DocumentURL returns the URL of the M8 document for a remote location. A
// location whose path already names a .json file is used as is; otherwise
// documentName is appended as a path segment.
func DocumentURL(location, documentName string) (string, error) {
	u, err := platformnet.ParseHTTPURL(location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if strings.EqualFold(path.Ext(u.Path), ".json") {
		return u.String(), nil
	}
	return u.JoinPath(documentName).String(), nil
}

// assetPath converts a catalogue location into an fs.FS path.
func assetPath(location string) (string, error) {
	p := strings.TrimSpace(location)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q escapes the assets directory", ErrInvalidLocation, location)
	}
	return p, nil
}
