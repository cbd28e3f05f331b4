package logger

import "go.uber.org/zap"

// Field constructors re-exported so callers don't import zap directly.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Duration = zap.Duration
	Any      = zap.Any
)

// Err attaches err under the "error" key.
func Err(err error) Field {
	return zap.Error(err)
}
