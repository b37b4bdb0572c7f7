package logutil

import (
	"go.uber.org/zap"
)

// LogPanicAndExit logs the panic reason and stack, then exit the process.
// Should be used with a `defer`.
func LogPanicAndExit(logger *zap.Logger) {
	if e := recover(); e != nil {
		logger.Fatal("panic and exit", zap.Reflect("recover", e))
	}
}

// LogPanic logs the panic reason and stack
// Should be used with a `defer`.
func LogPanic(logger *zap.Logger) {
	if e := recover(); e != nil {
		logger.Error("panic", zap.Reflect("recover", e))
		panic(e)
	}
}

// RecoverPanic logs the panic reason and calls onPanic instead of re-panicking.
// Should be used with a `defer`.
func RecoverPanic(logger *zap.Logger, onPanic func(e interface{})) {
	if e := recover(); e != nil {
		logger.Error("recovered from panic", zap.Reflect("recover", e), zap.Stack("stack"))
		if onPanic != nil {
			onPanic(e)
		}
	}
}
