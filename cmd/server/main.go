package main

import (
	"context"
	"log"

	"github.com/studyhub-tz/studyhub/internal/server"
	"github.com/studyhub-tz/studyhub/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
