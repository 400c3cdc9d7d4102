package xmlcodec

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for codec events.
var (
	SignalReadStart     = capitan.NewSignal("xmlcodec.read.start", "Read pass beginning")
	SignalReadComplete  = capitan.NewSignal("xmlcodec.read.complete", "Read pass finished")
	SignalWriteStart    = capitan.NewSignal("xmlcodec.write.start", "Write pass beginning")
	SignalWriteComplete = capitan.NewSignal("xmlcodec.write.complete", "Write pass finished")
)

// Keys for typed event data.
var (
	KeyTypeName       = capitan.NewStringKey("type_name")
	KeySize           = capitan.NewIntKey("size")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyReferenceCount = capitan.NewIntKey("reference_count")
	KeyError          = capitan.NewErrorKey("error")
)

// emitReadStart emits an event when a read pass begins.
func emitReadStart(ctx context.Context) {
	capitan.Emit(ctx, SignalReadStart)
}

// emitReadComplete emits an event when a read pass finishes.
func emitReadComplete(ctx context.Context, typeName string, duration time.Duration, refCount int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyReferenceCount.Field(refCount),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalReadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalReadComplete, fields...)
	}
}

// emitWriteStart emits an event when a write pass begins.
func emitWriteStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalWriteStart,
		KeyTypeName.Field(typeName),
	)
}

// emitWriteComplete emits an event when a write pass finishes.
func emitWriteComplete(ctx context.Context, typeName string, size int, duration time.Duration, refCount int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
		KeyReferenceCount.Field(refCount),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalWriteComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalWriteComplete, fields...)
	}
}
