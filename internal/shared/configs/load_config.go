package configs

import (
	"bytes"
	"fmt"
	"strings"

	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/shared/validators"

	"github.com/spf13/viper"
)

func registerDefaults(v *viper.Viper) {
	v.SetDefault("source.parallel_segments", 8)
	v.SetDefault("source.read_throughput_fraction", 0.5)
	v.SetDefault("source.scan_batch_size", 1000)
	v.SetDefault("sink.output_format", "json")
	v.SetDefault("sink.server_side_encryption", "AES256")
	v.SetDefault("processing.window_hours", 1)
	v.SetDefault("processing.max_retries", 3)
	v.SetDefault("processing.retry_base_delay_ms", 1000)
	v.SetDefault("processing.high_water_mark_bytes", 0)
	v.SetDefault("performance.max_concurrent_uploads", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("admin.port", 0)
}

// LoadConfig reads configuration from a YAML file path and validates it.
var LoadConfig = func(configPath string) (*Config, error) {
	v := viper.New()
	registerDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, svcerrors.New(svcerrors.ConfigInvalid, "CFG_1000",
			fmt.Sprintf("failed to read config file %q", configPath), err)
	}

	return unmarshalAndValidate(v)
}

// LoadConfigFromBytes reads configuration from an inline YAML or JSON
// document — the "or inline" half of spec §4.1's "file or inline" loading
// contract, used by the Lambda entry point where there is no local file
// path.
var LoadConfigFromBytes = func(doc []byte, format string) (*Config, error) {
	v := viper.New()
	registerDefaults(v)
	v.SetConfigType(format)

	if err := v.ReadConfig(bytes.NewReader(doc)); err != nil {
		return nil, svcerrors.New(svcerrors.ConfigInvalid, "CFG_1001", "failed to parse inline config", err)
	}

	return unmarshalAndValidate(v)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, svcerrors.New(svcerrors.ConfigInvalid, "CFG_1002", "failed to unmarshal config", err)
	}

	validate := validators.New()
	if err := validate.Struct(&cfg); err != nil {
		var validationErrors []string
		if ve, ok := err.(validators.ValidationErrors); ok {
			for _, e := range ve {
				validationErrors = append(validationErrors, formatValidationError(e))
			}
		}
		return nil, svcerrors.New(svcerrors.ConfigInvalid, "CFG_1003",
			fmt.Sprintf("config validation failed: %s", strings.Join(validationErrors, ", ")), nil)
	}

	return &cfg, nil
}

// formatValidationError formats a single validation error into a readable string.
func formatValidationError(e validators.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	if e.StructNamespace() != "" {
		// "Config.Source.Table" -> "source.table"
		parts := strings.Split(e.StructNamespace(), ".")
		if len(parts) >= 2 {
			field = strings.ToLower(strings.Join(parts[1:], "."))
		}
	}

	var msg string
	switch tag {
	case "required":
		msg = fmt.Sprintf("%s (required)", field)
	case "min":
		msg = fmt.Sprintf("%s (min=%s)", field, e.Param())
	case "max":
		msg = fmt.Sprintf("%s (max=%s)", field, e.Param())
	case "gt":
		msg = fmt.Sprintf("%s (gt=%s)", field, e.Param())
	case "lte":
		msg = fmt.Sprintf("%s (lte=%s)", field, e.Param())
	case "oneof":
		msg = fmt.Sprintf("%s (oneof=%s)", field, e.Param())
	default:
		msg = fmt.Sprintf("%s (%s)", field, tag)
	}

	return msg
}
