// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/fivegmag/awareapp/internal/cache"
	"github.com/fivegmag/awareapp/internal/catalog"
	"github.com/fivegmag/awareapp/internal/export"
	"github.com/fivegmag/awareapp/internal/log"
)

func runResolve(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("awareapp resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	format := fs.String("format", "", "output format: json or yaml (default from --out extension, else json)")
	out := fs.String("out", "", "write the model atomically to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: expected exactly one catalogue key or location")
		return 2
	}

	outFormat := export.FormatJSON
	switch {
	case *format != "":
		f, err := export.ParseFormat(*format)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		outFormat = f
	case *out != "":
		outFormat = export.FormatForPath(*out)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	configureCLILogger(cfg.LogLevel, stderr)

	location := locationFor(cfg.CatalogPath, fs.Arg(0))
	result, err := newResolver(cfg, cache.NewNoOpCache()).ResolveDetailed(ctx, location)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *out == "" {
		if err := export.Encode(stdout, result.Model, outFormat); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err := export.WriteModel(ctx, *out, result.Model, outFormat); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "wrote %d services from %s to %s\n", result.Model.Len(), result.DocumentURL, *out)
	return 0
}

// locationFor maps a catalogue key to its location. Anything that is not a
// key is used as a location verbatim.
func locationFor(catalogPath, arg string) string {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Debug().Err(err).Str(log.FieldPath, catalogPath).Msg("catalogue unavailable, treating argument as location")
		return arg
	}
	if src, err := cat.Lookup(arg); err == nil {
		return src.Location
	}
	return arg
}
