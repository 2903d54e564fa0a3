package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/rollcall/internal/buildinfo"
	"github.com/dmitrijs2005/rollcall/internal/server"
	"github.com/dmitrijs2005/rollcall/internal/server/config"
)

func main() {

	buildinfo.Print(os.Stdout, "rollcalld")

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
