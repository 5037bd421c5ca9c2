// Package logging builds the zap loggers used across chainer and fixes the
// structured field names they log with.
package logging

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

// Standard field names. Use these instead of raw strings.
const (
	FieldComponent = "component"
	FieldPredicate = "predicate"
	FieldRule      = "rule"
	FieldFact      = "fact"
	FieldArity     = "arity"
	FieldCount     = "count"
	FieldLimit     = "limit"
	FieldFile      = "file"
	FieldLine      = "line"
	FieldSnapshot  = "snapshot"
	FieldQuery     = "query"
)

// Options selects level and encoder.
type Options struct {
	Level       string
	Development bool
}

// ParseLevel maps a level name (debug, info, warn, error) to a zap level.
// An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zap.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zap.InfoLevel, errors.Wrapf(internalerr.ErrInvalidConfig, "log level %q", name)
	}
	return lvl, nil
}

// New builds a logger writing to stderr: console encoding in development,
// JSON otherwise.
func New(opts Options) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if opts.Development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core).Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Named returns l scoped to component, or a no-op logger when l is nil.
func Named(l *zap.SugaredLogger, component string) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l.Named(component).With(FieldComponent, component)
}
