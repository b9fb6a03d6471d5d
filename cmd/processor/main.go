package main

import (
	"context"
	"fmt"
	"os"

	"event-shipper/internal/app"
	"event-shipper/internal/shared/configs"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "./configs/configs.yml", "path to the configuration file")
	pflag.Parse()

	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	summary, err := application.Run(ctx)
	if err != nil {
		// Non-zero exit only when the Orchestrator fails before any segment
		// completes — everything else is reported through RunSummary.Partial.
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	if summary.Partial {
		fmt.Fprintf(os.Stderr, "run completed with partial progress: %d objects failed\n", summary.ObjectsFailed)
	} else {
		fmt.Printf("run completed: %d objects written, %d bytes\n", summary.ObjectsWritten, summary.BytesWritten)
	}
}
