package cmd

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnv 设置后启动阶段与命令行客户端输出 debug 日志
const DebugEnv = "CLOUDNAV_DEBUG"

// bootstrapLogger 配置加载前（run 的启动阶段、sync/import 客户端）使用的控制台日志
var bootstrapLogger = newConsoleLogger(os.Stderr, os.Getenv(DebugEnv) != "")

func newConsoleLogger(w io.Writer, debug bool) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddCaller())
}
