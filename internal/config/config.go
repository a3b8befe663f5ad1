package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/env"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
	"github.com/eskrenkovic/csv-import-go/internal/upload"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	PortEnv               = "PORT"
	DatabaseDriverEnv     = "DATABASE_DRIVER"
	DatabaseUrlEnv        = "DATABASE_URL"
	ImportVariantEnv      = "IMPORT_VARIANT"
	UploadStorageEnv      = "UPLOAD_STORAGE"
	UploadTempDirEnv      = "UPLOAD_TEMP_DIR"
	UploadMaxBytesEnv     = "UPLOAD_MAX_BYTES"
	CORSAllowedOriginsEnv = "CORS_ALLOWED_ORIGINS"
	MigrateOnStartEnv     = "MIGRATE_ON_START"
	LogLevelEnv           = "LOG_LEVEL"
)

const (
	DefaultPort           = 4000
	DefaultUploadMaxBytes = 10 << 20
)

type Config struct {
	Logger *zap.Logger `validate:"-"`

	Port           int              `validate:"min=1,max=65535"`
	DatabaseDriver database.Dialect `validate:"required"`
	DatabaseURL    string           `validate:"required"`
	MigrateOnStart bool

	ImportVariant domain.Variant `validate:"required"`

	UploadStorage  string `validate:"oneof=memory disk"`
	UploadTempDir  string
	UploadMaxBytes int64 `validate:"gt=0"`

	CORSAllowedOrigins []string `validate:"min=1,dive,required"`

	LogLevel zapcore.Level `validate:"-"`
}

// Load reads the configuration from the environment and builds the
// application logger.
func Load() (Config, error) {
	port, portErr := env.GetIntOrDefault(PortEnv, DefaultPort)
	maxBytes, maxBytesErr := env.GetInt64OrDefault(UploadMaxBytesEnv, DefaultUploadMaxBytes)
	migrateOnStart, migrateErr := env.GetBoolOrDefault(MigrateOnStartEnv, true)
	logLevel, logLevelErr := zapcore.ParseLevel(env.GetStringOrDefault(LogLevelEnv, "info"))
	driver, driverErr := database.ParseDialect(env.GetStringOrDefault(DatabaseDriverEnv, string(database.Postgres)))
	variant, variantErr := domain.ParseVariant(env.GetStringOrDefault(ImportVariantEnv, string(domain.VariantSimple)))

	if err := errors.Join(portErr, maxBytesErr, migrateErr, logLevelErr, driverErr, variantErr); err != nil {
		return Config{}, err
	}

	config := Config{
		Port:               port,
		DatabaseDriver:     driver,
		DatabaseURL:        env.GetStringOrDefault(DatabaseUrlEnv, ""),
		MigrateOnStart:     migrateOnStart,
		ImportVariant:      variant,
		UploadStorage:      env.GetStringOrDefault(UploadStorageEnv, upload.KindMemory),
		UploadTempDir:      env.GetStringOrDefault(UploadTempDirEnv, os.TempDir()),
		UploadMaxBytes:     maxBytes,
		CORSAllowedOrigins: env.GetListOrDefault(CORSAllowedOriginsEnv, []string{"*"}),
		LogLevel:           logLevel,
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := NewLogger(logLevel)
	if err != nil {
		return Config{}, err
	}
	config.Logger = logger

	return config, nil
}

// NewLogger builds a JSON logger writing to stdout at level.
func NewLogger(level zapcore.Level) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stdout"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
