package gateway

import (
	"time"

	"pairserver/models"

	"go.uber.org/zap"

	"github.com/gorilla/websocket"
)

const (
	pingPeriod   = 10 * time.Second
	readDeadline = 60 * time.Second
)

// managePingPong は定期的にPingを送り、Pong受信で読み取りデッドラインを
// 延長します。デッドラインを過ぎた接続は読み取りループ側がエラーで
// 終了し、離脱処理まで進みます。
func managePingPong(client *models.Client, logger *zap.Logger) {
	client.Conn.SetReadDeadline(time.Now().Add(readDeadline))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		client.WriteMu.Lock()
		err := client.Conn.WriteMessage(websocket.PingMessage, nil)
		client.WriteMu.Unlock()
		if err != nil {
			logger.Info("Ping failed - stopping keepalive",
				zap.String("connID", client.ConnID), zap.Error(err))
			return
		}
	}
}
