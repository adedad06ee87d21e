package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const Service = "talent-matcher"

// New builds the process logger. json adds the service name and stack traces
// on errors.
func New(json bool, debug bool) (*zap.Logger, error) {
	cfg := config(json, debug)

	opts := []zap.Option{zap.AddStacktrace(zapcore.DPanicLevel)}
	if json {
		opts = []zap.Option{
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(zap.String("service", Service)),
		}
	}

	return cfg.Build(opts...)
}

func config(json, debug bool) zap.Config {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	enc := zapcore.EncoderConfig{
		MessageKey:    "step",
		LevelKey:      "level",
		TimeKey:       "time",
		CallerKey:     "caller",
		NameKey:       "component",
		StacktraceKey: "stacktrace",
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime:    zapcore.RFC3339TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}

	// CLI commands print their results on stdout.
	encoding, output := "console", "stderr"
	if json {
		encoding, output = "json", "stdout"
		enc.EncodeDuration = zapcore.MillisDurationEncoder
	} else {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeDuration = zapcore.StringDurationEncoder
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            level,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    enc,
	}
}
