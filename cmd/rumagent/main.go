package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"rumagent/internal/app"
	"rumagent/pkg/config"
	"rumagent/pkg/logger"
	"rumagent/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(flags.Config, flags.Set["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	config.ApplyFlags(cfg, flags)

	logger.InitWithLevel(cfg.Logging.Level)
	if envUsed {
		logger.Debug("config_env_overrides_applied")
	}

	a, err := app.New(cfg, version)
	if err != nil {
		shutdown.Abort("agent startup failed", err, cfg.Storage.DBPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("agent terminated with error", err, cfg.Storage.DBPath, 0)
	}
}
