// SPDX-License-Identifier: MIT

// Package export writes resolved M8 models to files or streams.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/m8"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat accepts "json", "yaml" and "yml" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatForPath picks the format from the file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes model to w.
func Encode(w io.Writer, model m8.Model, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(model); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteModel atomically replaces path with the encoded model. Readers see
// either the previous file or the complete new one.
func WriteModel(ctx context.Context, path string, model m8.Model, format Format) error {
	logger := log.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending export file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending export file")
		}
	}()

	h := sha256.New()
	if err := Encode(io.MultiWriter(pendingFile, h), model, format); err != nil {
		return fmt.Errorf("encode m8 model: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace export file: %w", err)
	}

	logger.Debug().
		Str(log.FieldEvent, "m8.exported").
		Str(log.FieldPath, path).
		Str("format", string(format)).
		Int(log.FieldServices, model.Len()).
		Str("sha256", hex.EncodeToString(h.Sum(nil))).
		Msg("m8 model exported")
	return nil
}
