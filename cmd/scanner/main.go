package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/rollcall/internal/buildinfo"
	"github.com/dmitrijs2005/rollcall/internal/client/cli"
	"github.com/dmitrijs2005/rollcall/internal/client/config"
)

func main() {

	buildinfo.Print(os.Stdout, "rollcall")

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
