package log

import (
	"time"

	"go.uber.org/zap"
)

// field helpers, so callers don't need to import zap
var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	ByteString = zap.ByteString
	Float64    = zap.Float64
	Float32    = zap.Float32
	Int        = zap.Int
	Int64      = zap.Int64
	Int32      = zap.Int32
	Uint       = zap.Uint
	Uint64     = zap.Uint64
	Uint32     = zap.Uint32
	Uint8      = zap.Uint8
	Uint8s     = zap.Uint8s
	String     = zap.String
	Strings    = zap.Strings
	Stringer   = zap.Stringer
	Time       = zap.Time
	Any        = zap.Any
	Namespace  = zap.Namespace
)

func Duration(key string, d time.Duration) Field {
	return zap.Duration(key, d)
}

func ErrorField(err error) Field {
	return zap.Error(err)
}
