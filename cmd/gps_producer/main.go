package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/app"
	"github.com/relabs-tech/whereiam/internal/config"
)

func main() {
	configPath := flag.String("config", "./whereiam_config.txt", "path to configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := app.ConfigureLogging(config.Get().LogLevel); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	log.Println("starting whereiam GPS producer (NMEA → MQTT)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunGPSProducer(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
