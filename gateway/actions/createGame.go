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

// handleCreateGame は新しいセッションを作成し、作成者をその購読者として
// 登録します。別のセッションに着席していた場合は先に明示的に離脱させ、
// 残された相手へ離脱通知と終了状態を配ってから作成します。
func handleCreateGame(ctx context.Context, client *models.Client, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	if left, ok := registry.Leave(client.UserID); ok {
		conns.Unbind(left, client)
		broadcast.NotifyPlayerLeft(conns, left, client.UserID, logger)
		broadcast.BroadcastGameState(registry, conns, left, logger)
	} else if client.GameID != "" {
		conns.Unbind(client.GameID, client)
	}

	sessionID := registry.Create(playerFromClient(client))
	client.GameID = sessionID
	conns.Bind(sessionID, client)

	payload := map[string]interface{}{
		"type":      "game-created",
		"sessionId": sessionID,
	}
	if err := broadcast.SendJSON(client, payload, logger); err != nil {
		logger.Error("Failed to send game-created", zap.Error(err))
	}

	broadcast.BroadcastGameState(registry, conns, sessionID, logger)
	database.UpdateSessionBinding(ctx, client, rdb, logger)
}
