package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FieldSimulationID - ключ идентификатора прогона в логах
const FieldSimulationID = "simulation_id"

func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level == "debug" {
		config.Development = true
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

// WithSimulation добавляет к логгеру идентификатор прогона
func WithSimulation(l *zap.Logger, id string) *zap.Logger {
	return l.With(zap.String(FieldSimulationID, id))
}
