package gateway

import (
	"context"
	"net/http"

	"pairserver/game"
	"pairserver/gateway/actions"
	"pairserver/gateway/broadcast"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket接続へのアップグレードを行う関数。接続は未認証のまま開始し、
// クライアントが最初にauthenticateメッセージを送るまでゲーム系の
// アクションは受け付けません。
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, rdb *redis.Client, logger *zap.Logger, registry *game.Registry, conns *broadcast.Conns, upgrader websocket.Upgrader) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// WebSocket接続のアップグレードに失敗
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &models.Client{
		Conn:   conn,
		ConnID: uuid.New().String(),
	}
	logger.Info("New connection", zap.String("connID", client.ConnID))

	// クライアントごとにメッセージ読み取りゴルーチンを起動
	go actions.HandleClient(ctx, client, registry, conns, rdb, logger)

	// Ping/Pongを管理するゴルーチンを起動
	go managePingPong(client, logger)
}
