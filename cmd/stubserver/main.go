// Command stubserver runs the local fixture backend for the rentals
// client: the same REST surface the production API exposes, backed by
// in-memory state that resets on restart.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/theaddress/rentals/internal/devserver"
	"github.com/theaddress/rentals/pkg/logger"
)

type serverConfig struct {
	Port      string `env:"PORT,       default=8080"`
	JWTSecret string `env:"JWT_SECRET, default=local-development-secret"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
}

func main() {
	var cfg serverConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	srv := devserver.New(devserver.Config{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  24 * time.Hour,
	}, log)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("fixture server listening")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
