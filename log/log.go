// Package log is a thin package-level wrapper around zap, mirroring
// LeoCommon-client's pkg/log shape (structured Debug/Info/Warn/Error
// with zap.Field args), plus a formatted adapter satisfying
// engine.Logger for the scan engine's worker loop.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLog *zap.Logger

func Init(debug bool) {
	var config zap.Config
	var encoderConf zapcore.EncoderConfig

	if debug {
		config = zap.NewDevelopmentConfig()
		encoderConf = zap.NewDevelopmentEncoderConfig()
		encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewProductionConfig()
		encoderConf = zap.NewProductionEncoderConfig()
		encoderConf.EncodeTime = zapcore.EpochMillisTimeEncoder
	}

	config.EncoderConfig = encoderConf

	var err error
	zapLog, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
}

func Debug(message string, fields ...zap.Field) { zapLog.Debug(message, fields...) }
func Info(message string, fields ...zap.Field)  { zapLog.Info(message, fields...) }
func Warn(message string, fields ...zap.Field)  { zapLog.Warn(message, fields...) }
func Error(message string, fields ...zap.Field) { zapLog.Error(message, fields...) }
func Fatal(message string, fields ...zap.Field) { zapLog.Fatal(message, fields...) }
func Panic(message string, fields ...zap.Field) { zapLog.Panic(message, fields...) }

// EngineLogger adapts the package-level zap logger to engine.Logger's
// printf-style surface, used to wire this package into engine.New
// without the engine importing zap directly.
type EngineLogger struct{}

func (EngineLogger) Debugf(format string, args ...interface{}) { zapLog.Sugar().Debugf(format, args...) }
func (EngineLogger) Infof(format string, args ...interface{})  { zapLog.Sugar().Infof(format, args...) }
func (EngineLogger) Warnf(format string, args ...interface{})  { zapLog.Sugar().Warnf(format, args...) }
func (EngineLogger) Errorf(format string, args ...interface{}) { zapLog.Sugar().Errorf(format, args...) }
