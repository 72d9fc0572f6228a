package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where logs go
type Options struct {
	Env          string
	Dir          string
	Console      io.Writer
	ConsoleLevel zapcore.Level
	Now          func() time.Time
}

// InitLogger writes Info and above to stdout and everything to logs/<env>_<timestamp>.log
func InitLogger(env string) (*zap.Logger, error) {
	return New(Options{
		Env:          env,
		Dir:          "logs",
		Console:      os.Stdout,
		ConsoleLevel: zapcore.InfoLevel,
	})
}

// New builds a logger that tees a coloured console encoder and a JSON file encoder.
// The file always receives Debug.
func New(opts Options) (*zap.Logger, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Log directory is created on first run
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	// One file per run, named after the environment and start time
	logFileName := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", opts.Env, opts.Now().Format("2006-01-02_15-04-05")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Console: short timestamps and coloured levels
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	// File: JSON lines with ISO8601 timestamps
	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Console honours ConsoleLevel, the file always gets Debug
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.AddSync(opts.Console), opts.ConsoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("env", opts.Env)), nil
}
