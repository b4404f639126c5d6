// SPDX-License-Identifier: MIT

// Package playback defines the boundary to the media-session handler and
// player components that consume a resolved M8 model.
package playback

import (
	"context"

	"github.com/fivegmag/awareapp/internal/m8"
)

// MediaSessionHandler is the media-session component playback is delegated to.
type MediaSessionHandler interface {
	// SetM5Endpoint points the session handler at the M5 base URL of the current model.
	SetM5Endpoint(ctx context.Context, baseURL string) error
	// UpdateLookupTable hands the full model to the session handler.
	UpdateLookupTable(ctx context.Context, model m8.Model) error
	// InitializePlaybackByServiceListEntry starts playback of one service.
	InitializePlaybackByServiceListEntry(ctx context.Context, entry m8.ServiceListEntry) error
	// Reset releases the session, e.g. on shutdown.
	Reset(ctx context.Context) error
}

// Player is the rendering component.
type Player interface {
	Stop(ctx context.Context) error
}
