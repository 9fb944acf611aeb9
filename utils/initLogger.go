package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitLogger は本番用の構造化ロガーを返します。WebSocket側・ゲーム側で
// 共有する唯一のロガーで、以降の全コンポーネントに引き回されます。
func InitLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// RequestLogger はHTTPエンドポイント（/healthなど）のアクセスログを取る
// Ginミドルウェアです。WebSocket接続はアップグレード時の1リクエスト分
// だけがここに記録されます。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
