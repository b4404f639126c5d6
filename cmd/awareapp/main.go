// SPDX-License-Identifier: MIT

// Command awareapp is the 5GMS Aware Application: it discovers M8 services
// from a source catalogue and drives media playback selection over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fivegmag/awareapp/internal/log"
	"github.com/fivegmag/awareapp/internal/version"
)

func main() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-version", "version":
			fmt.Fprintln(stdout, version.String())
			return 0
		case "-h", "--help", "help":
			printUsage(stderr)
			return 0
		case "serve":
			return runServe(ctx, args[1:], stderr)
		case "resolve":
			return runResolve(ctx, args[1:], stdout, stderr)
		case "sources":
			return runSources(args[1:], stdout, stderr)
		case "config":
			return runConfigCLI(args[1:], stdout, stderr)
		}
	}
	return runServe(ctx, args, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  awareapp [serve] [--config config.yaml]")
	fmt.Fprintln(w, "  awareapp resolve [--config config.yaml] [--format json|yaml] [--out file] <key|location>")
	fmt.Fprintln(w, "  awareapp sources [--config config.yaml] [--json]")
	fmt.Fprintln(w, "  awareapp config validate|dump [--file config.yaml]")
	fmt.Fprintln(w, "  awareapp --version")
}

// configureCLILogger sends logs of one-shot commands to stderr so that
// stdout carries only command output.
func configureCLILogger(level string, stderr io.Writer) {
	log.Configure(log.Config{
		Level:   level,
		Output:  stderr,
		Service: "awareapp",
		Version: version.Version,
	})
}
