// Package main is the entry point for the HeartRisk API server, which
// classifies heart-disease risk with the bundled models and keeps a
// per-patient history behind JWT authentication.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/server"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// Version information is set during build time through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// init loads environment variables from a .env file if present.
func init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath  string
		showVersion bool
		checkModel  bool
	)

	flag.StringVar(&configPath, "config", "./configs/config.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&checkModel, "check-model", false, "Load and self-test the model bundle, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("HeartRisk API Server\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)

	// The process does not serve without a working bundle.
	bundle, err := inference.Load(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Model.ArtifactPath).Msg("Failed to load model bundle")
	}

	if checkModel {
		for _, m := range bundle.Models() {
			fmt.Printf("%-24s %-32s %-8s trees=%d\n", m.Key, m.Name, m.Kind, m.Trees)
		}
		fmt.Printf("encoding_version=%d\n", bundle.EncodingVersion)
		os.Exit(0)
	}

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Strs("models", bundle.Keys()).
		Msg("Starting HeartRisk API Server")

	utils.InitValidator()

	srv, err := server.NewServer(cfg, bundle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Start blocks until shutdown and runs the maintenance tasks itself.
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
