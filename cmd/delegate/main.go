package main

import (
	"log"
	"os"

	"github.com/aussiebroadwan/delegate/internal/app"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("delegate", pflag.ExitOnError)
	app.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := app.LoadConfig(flags)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
