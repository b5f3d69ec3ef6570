package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
)

// Init 初始化全局 zap Logger
// APP_ENV=production 时输出 JSON，否则输出开发格式
func Init() *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)

	if os.Getenv("APP_ENV") == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	zap.ReplaceGlobals(l)
	return l
}
