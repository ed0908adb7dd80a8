// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// modstash manages a verified game-content store: it hydrates the
// content database, ingests mod bundle manifests, and maintains the
// hash manifests used for integrity checking.
//
// Usage:
//
//	modstash hydrate --config <path>
//	modstash bundles --config <path>
//	modstash checks generate --root <dir> --out <file>
//	modstash minify --root <dir>
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if os.Getenv("MODSTASH_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "hydrate":
		err = hydrateCmd(args, logger)
	case "bundles":
		err = bundlesCmd(args, logger)
	case "checks":
		err = checksCmd(args, logger)
	case "minify":
		err = minifyCmd(args, logger)
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `modstash - verified game-content store

Commands:
  hydrate          Load the content database, validating against the
                   hash manifest when verified mode is enabled
  bundles          Ingest mod bundle manifests and print the registry
  checks generate  Produce a hash manifest for a content tree
  minify           Re-serialize every .json file under a tree to
                   minimal form

Environment:
  MODSTASH_CONFIG  Default config file path
  MODSTASH_DEBUG   Enable debug logging when set

Run "modstash <command> --help" for command flags.
`)
}

// configPath resolves the config file from the flag value or the
// MODSTASH_CONFIG environment variable.
func configPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("MODSTASH_CONFIG"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no config file: pass --config or set MODSTASH_CONFIG")
}
