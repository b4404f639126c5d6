// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fivegmag/awareapp/internal/config"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  awareapp config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  awareapp config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func parseConfigFlags(name string, args []string, stderr io.Writer, withFormat bool) (file, format string, code int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if withFormat {
		fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", "", 0
		}
		return "", "", 2
	}
	return strings.TrimSpace(file), format, -1
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	file, _, code := parseConfigFlags("awareapp config validate", args, stderr, false)
	if code >= 0 {
		return code
	}

	if _, err := loadConfig(file); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describeSource(file), err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", describeSource(file))
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env)
// with secrets masked.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	file, format, code := parseConfigFlags("awareapp config dump", args, stderr, true)
	if code >= 0 {
		return code
	}

	cfg, err := loadConfig(file)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", describeSource(file), err)
		return 1
	}
	fileCfg := config.ToFileConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

func describeSource(file string) string {
	if file == "" {
		return "environment and defaults"
	}
	return file
}
