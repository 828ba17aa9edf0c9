package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exocorn/exocorn/go/models"
)

// New builds the kernel logger from the machine config. Logs go to
// c.Output (stderr by default) so they never mix with the simulated console.
func New(c *models.Config) (*zap.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if c.Verbose && level > zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}
	var out io.Writer = os.Stderr
	if c.Output != nil {
		out = c.Output
	}
	core := zapcore.NewCore(
		encoder(c.LogDev),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(level),
	)
	opts := []zap.Option{zap.AddCaller()}
	if c.LogDev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...).Named("kernel"), nil
}

// Must is New for command line entry points, falling back to a no-op logger.
func Must(c *models.Config) *zap.Logger {
	log, err := New(c)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "log level %q", level)
	}
	return l, nil
}

func encoder(development bool) zapcore.Encoder {
	if development {
		return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
	}
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

// Env tags a log line with an environment id.
func Env(id models.EnvID) zap.Field {
	return zap.Stringer("env", id)
}

// VA tags a log line with a user address.
func VA(va uint32) zap.Field {
	return zap.String("va", fmt.Sprintf("0x%08x", va))
}
