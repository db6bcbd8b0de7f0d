package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
)

func main() {

	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig(ctx)
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
