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

// handleLeaveGame は自発的な離脱を処理します。明示的なackは返さず、
// 残ったプレイヤーにだけ変化を配ります。
func handleLeaveGame(ctx context.Context, client *models.Client, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	sessionID, ok := registry.Leave(client.UserID)
	if !ok {
		return
	}

	conns.Unbind(sessionID, client)
	client.GameID = ""

	broadcast.NotifyPlayerLeft(conns, sessionID, client.UserID, logger)
	broadcast.BroadcastGameState(registry, conns, sessionID, logger)
	database.UpdateSessionBinding(ctx, client, rdb, logger)
}
