package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"event-shipper/internal/app"
	"event-shipper/internal/shared/configs"

	"github.com/aws/aws-lambda-go/lambda"
)

// invocationPayload is otherwise opaque and ignored for window computation
// (spec §4.5: "an opaque invocation payload"); the only field read is an
// optional inline "config" object.
type invocationPayload map[string]any

type invocationResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// loadConfig resolves configuration in priority order: an inline "config"
// object carried on the invocation payload, then the EVENT_SHIPPER_CONFIG
// env var (an inline YAML/JSON document), then a file on disk. The inline
// paths exercise spec §4.1's "file or inline" loading contract's other
// half — a Lambda invocation has no guaranteed local config file.
var loadConfig = func(payload invocationPayload) (*configs.Config, error) {
	if raw, ok := payload["config"]; ok && raw != nil {
		doc, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal inline config payload: %w", err)
		}
		return configs.LoadConfigFromBytes(doc, "json")
	}

	if inline := os.Getenv("EVENT_SHIPPER_CONFIG"); inline != "" {
		format := os.Getenv("EVENT_SHIPPER_CONFIG_FORMAT")
		if format == "" {
			format = "yaml"
		}
		return configs.LoadConfigFromBytes([]byte(inline), format)
	}

	configPath := os.Getenv("EVENT_SHIPPER_CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/configs.yml"
	}
	return configs.LoadConfig(configPath)
}

// handle mirrors original_source/src/main.py's lambda_handler: build the
// app fresh per invocation, run it, and return {statusCode, body} with the
// run's success/partial status folded into statusCode.
func handle(ctx context.Context, payload invocationPayload) (invocationResponse, error) {
	cfg, err := loadConfig(payload)
	if err != nil {
		return invocationResponse{}, fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return invocationResponse{}, fmt.Errorf("failed to initialize app: %w", err)
	}

	summary, err := application.Run(ctx)
	if err != nil {
		return invocationResponse{}, err
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return invocationResponse{}, fmt.Errorf("failed to marshal run summary: %w", err)
	}

	statusCode := 200
	if summary.Partial {
		statusCode = 206
	}
	return invocationResponse{StatusCode: statusCode, Body: string(body)}, nil
}

func main() {
	lambda.Start(handle)
}
