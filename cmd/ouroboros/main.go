package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tmaziere/ouroboros/internal/gameserver"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

func main() {
	// A missing .env file is fine; real environment variables win anyway.
	_ = godotenv.Load()

	config := gameserver.FromEnv()
	if err := config.Validate(); err != nil {
		log.Fatalf(`level=error msg="%s" desc="%s"`, err.Error(), "invalid configuration")
	}

	server := gameserver.NewGameServer(config)
	defer logx.Sync()

	if err := server.Listen(); err != nil {
		logx.Logger.Fatalw("could not bind listeners", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logx.Logger.Fatalw("server stopped", "error", err)
	}
}
