package actions

import (
	"context"

	"pairserver/game"
	"pairserver/gateway/broadcast"
	"pairserver/gateway/database"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
)

// handleJoinGame はセッションコードを指定しての参加要求を処理します。
// セッションが無い・満席・開始済みのときは本人にだけエラーを返します。
func handleJoinGame(ctx context.Context, client *models.Client, msg map[string]interface{}, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	sessionID, _ := msg["sessionId"].(string)
	if sessionID == "" {
		broadcast.SendError(client, "Missing session ID", logger)
		return
	}

	if !registry.Join(sessionID, playerFromClient(client)) {
		broadcast.SendError(client, "Unable to join game", logger)
		return
	}

	// 別セッションからの移動の場合、レジストリが内部で離脱処理を
	// 済ませているので、残された相手へ離脱通知と終了状態を配る
	if oldSessionID := client.GameID; oldSessionID != "" && oldSessionID != sessionID {
		conns.Unbind(oldSessionID, client)
		broadcast.NotifyPlayerLeft(conns, oldSessionID, client.UserID, logger)
		broadcast.BroadcastGameState(registry, conns, oldSessionID, logger)
	}
	client.GameID = sessionID
	conns.Bind(sessionID, client)

	payload := map[string]interface{}{
		"type":      "game-joined",
		"sessionId": sessionID,
	}
	if err := broadcast.SendJSON(client, payload, logger); err != nil {
		logger.Error("Failed to send game-joined", zap.Error(err))
	}

	broadcast.NotifyPlayerJoined(conns, sessionID, playerFromClient(client), logger)
	broadcast.BroadcastGameState(registry, conns, sessionID, logger)
	database.UpdateSessionBinding(ctx, client, rdb, logger)
}
