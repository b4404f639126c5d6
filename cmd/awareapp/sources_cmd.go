// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fivegmag/awareapp/internal/catalog"
)

func runSources(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("awareapp sources", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	configureCLILogger(cfg.LogLevel, stderr)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cat.Sources()); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tKIND\tLOCATION")
	for _, s := range cat.Sources() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Kind, s.Location)
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}
