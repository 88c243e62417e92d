package main

import (
	"log"

	corecmd "github.com/odjakh/giveaway-bot/core/cmd"
	"github.com/odjakh/giveaway-bot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.Load,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}
