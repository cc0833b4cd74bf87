// Package log is the decompiler's logging front end. It forwards to the
// go-ethereum structured logger and adds filtered writes and a debug switch
// for the verbose per-pass output.
package log

import (
	ethlog "github.com/ethereum/go-ethereum/log"
	"golang.org/x/exp/slog"
)

// Logger is the structured logger used throughout the module.
type Logger = ethlog.Logger

const (
	LevelDebug = slog.LevelDebug
	LevelWarn  = slog.LevelWarn
)

// Root returns the process wide logger.
func Root() Logger { return ethlog.Root() }

// SetDefault replaces the process wide logger.
func SetDefault(l Logger) { ethlog.SetDefault(l) }

// New returns a child of the root logger carrying ctx on every record.
func New(ctx ...interface{}) Logger { return Root().With(ctx...) }

func Warn(msg string, ctx ...interface{}) { Root().Write(LevelWarn, msg, ctx...) }
