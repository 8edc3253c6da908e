// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bayarmunkh/sapling/lib/config"
	"github.com/bayarmunkh/sapling/lib/repo"
	"github.com/bayarmunkh/sapling/lib/service"
	"github.com/bayarmunkh/sapling/lib/uploadtoken"
	"github.com/bayarmunkh/sapling/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("sapling-edenapi-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the service config file (default: $SAPLING_CONFIG)")
	flagSet.StringVar(&listen, "listen", "", "override server.listen from the config file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("sapling-edenapi-service %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := service.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := service.NewLogger(level)

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	registryConfig, err := registryConfigFrom(cfg, logger)
	if err != nil {
		return err
	}
	registry, err := repo.NewRegistry(registryConfig)
	if err != nil {
		return fmt.Errorf("creating repository registry: %w", err)
	}
	defer registry.Close()

	signer, err := loadSigner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := newServer(serverConfig{
		Registry:        registry,
		Signer:          signer,
		Limit:           cfg.Server.MaxConcurrentFetches,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		Logger:          logger,
	})
	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.Server.Listen,
		Handler:         api.routes(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ReadTimeout:     cfg.Server.ReadTimeout,
		Logger:          logger,
	})

	logger.Info("edenapi service starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"repos", registry.Names(),
		"max_concurrent_fetches", cfg.Server.MaxConcurrentFetches,
	)
	return httpServer.Serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// registryConfigFrom translates the repos section of the config into
// registry definitions.
func registryConfigFrom(cfg *config.Config, logger *slog.Logger) (repo.RegistryConfig, error) {
	definitions := make([]repo.Definition, 0, len(cfg.Repos))
	for _, repoConfig := range cfg.Repos {
		compression, err := repo.ParseCompressionTag(cfg.CompressionFor(repoConfig))
		if err != nil {
			return repo.RegistryConfig{}, fmt.Errorf("repo %s: %w", repoConfig.Name, err)
		}
		definitions = append(definitions, repo.Definition{
			Name:        repoConfig.Name,
			Backend:     repo.Backend(repoConfig.Backend),
			Path:        repoConfig.Path,
			PoolSize:    repoConfig.PoolSize,
			Compression: compression,
		})
	}
	return repo.RegistryConfig{
		Repos:     definitions,
		CacheSize: cfg.Storage.CacheSize,
		Logger:    logger,
	}, nil
}

// loadSigner reads the upload-token secret. Without a configured
// secret file (allowed outside production) a random secret is used and
// tokens stop verifying when the process restarts.
func loadSigner(cfg *config.Config, logger *slog.Logger) (*uploadtoken.Signer, error) {
	if cfg.Uploads.TokenSecretFile != "" {
		signer, err := uploadtoken.LoadSigner(cfg.Uploads.TokenSecretFile)
		if err != nil {
			return nil, fmt.Errorf("loading upload token secret: %w", err)
		}
		return signer, nil
	}

	logger.Warn("uploads.token_secret_file not set, signing upload tokens with an ephemeral secret")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating upload token secret: %w", err)
	}
	return uploadtoken.NewSigner(secret)
}
