package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/golive/internal/app"
	"github.com/dmitrijs2005/golive/internal/buildinfo"
	"github.com/dmitrijs2005/golive/internal/config"
	"github.com/dmitrijs2005/golive/internal/console"
	"github.com/dmitrijs2005/golive/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer a.Close()

	console.New(a, os.Stdin, os.Stdout).Run(ctx)

}
