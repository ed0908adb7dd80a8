// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/modstash/modstash/lib/bundle"
	"github.com/modstash/modstash/lib/config"
	"github.com/modstash/modstash/lib/hashcache"
	"github.com/modstash/modstash/lib/hydrate"
	"github.com/modstash/modstash/lib/opqueue"
	"github.com/modstash/modstash/lib/vfs"
)

// store bundles the wired-up storage subsystem shared by the
// config-driven commands.
type store struct {
	queue    *opqueue.Queue
	fs       *vfs.VFS
	cache    *hashcache.Cache
	registry *bundle.Registry
	hydrator *hydrate.Hydrator
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store, error) {
	queue := opqueue.New(logger, cfg.QueueDepth)
	fs := vfs.New(queue, logger, vfs.Options{MinifyWorkers: cfg.MinifyWorkers})

	cache, err := hashcache.Open(cfg.CacheFile, logger)
	if err != nil {
		queue.Close()
		return nil, err
	}

	return &store{
		queue:    queue,
		fs:       fs,
		cache:    cache,
		registry: bundle.NewRegistry(fs, cache, logger),
		hydrator: hydrate.New(fs, logger, hydrate.Config{
			ContentRoot:    cfg.ContentRoot,
			ChecksFile:     cfg.ChecksFile,
			VerifiedMode:   cfg.VerifiedMode,
			ImagesRoot:     cfg.ImagesRoot,
			ImageOverrides: cfg.ImageOverrides,
		}),
	}, nil
}

func (s *store) close() {
	s.queue.Close()
}

func hydrateCmd(args []string, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("hydrate", pflag.ContinueOnError)
	configFlag := flags.String("config", "", "config file path")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path, err := configPath(*configFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	table, err := s.hydrator.Hydrate()
	if err != nil {
		return err
	}

	if cfg.ImagesRoot != "" {
		routes := hydrate.NewRoutes()
		if err := s.hydrator.RegisterImages(routes); err != nil {
			return err
		}
		logger.Info("image routes ready", "count", routes.Len())
	}

	for _, mod := range cfg.Mods {
		if err := s.registry.AddFromManifest(mod); err != nil {
			return fmt.Errorf("ingesting mod %s: %w", mod, err)
		}
	}

	fmt.Printf("hydrated %d top-level tables, validation %s, %d bundles registered\n",
		len(table), s.hydrator.State(), s.registry.Len())
	return nil
}

func bundlesCmd(args []string, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("bundles", pflag.ContinueOnError)
	configFlag := flags.String("config", "", "config file path")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path, err := configPath(*configFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	for _, mod := range cfg.Mods {
		if err := s.registry.AddFromManifest(mod); err != nil {
			return fmt.Errorf("ingesting mod %s: %w", mod, err)
		}
	}

	for _, info := range s.registry.All() {
		fmt.Printf("%s\t%s\t%s\n", info.FileName, info.Hash, info.ModPath)
	}
	return nil
}

func checksCmd(args []string, logger *slog.Logger) error {
	if len(args) < 1 || args[0] != "generate" {
		return fmt.Errorf("usage: modstash checks generate --root <dir> --out <file>")
	}

	flags := pflag.NewFlagSet("checks generate", pflag.ContinueOnError)
	root := flags.String("root", "", "content tree to hash")
	out := flags.String("out", "", "manifest output path")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *root == "" || *out == "" {
		return fmt.Errorf("both --root and --out are required")
	}

	tree, err := hydrate.GenerateChecks(*root)
	if err != nil {
		return err
	}
	encoded, err := hydrate.EncodeChecks(tree)
	if err != nil {
		return err
	}

	queue := opqueue.New(logger, 0)
	defer queue.Close()
	fs := vfs.New(queue, logger, vfs.Options{})
	if err := fs.WriteFile(*out, encoded, vfs.WriteOptions{Atomic: true}); err != nil {
		return err
	}

	logger.Info("checks manifest written", "root", *root, "out", *out)
	return nil
}

func minifyCmd(args []string, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("minify", pflag.ContinueOnError)
	root := flags.String("root", "", "directory tree to minify")
	workers := flags.Int("workers", 0, "worker pool size (0 = CPU count)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *root == "" {
		return fmt.Errorf("--root is required")
	}
	if _, err := os.Stat(*root); err != nil {
		return fmt.Errorf("minify root: %w", err)
	}

	queue := opqueue.New(logger, 0)
	defer queue.Close()
	fs := vfs.New(queue, logger, vfs.Options{MinifyWorkers: *workers})

	return fs.MinifyTree(context.Background(), *root)
}
