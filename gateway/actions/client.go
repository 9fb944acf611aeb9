package actions

import (
	"context"
	"encoding/json"

	"pairserver/game"
	"pairserver/gateway/broadcast"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
)

// クライアントごとにメッセージを読み取り、アクションへ振り分ける
// ゴルーチンです。切断時はセッションからの離脱処理まで行います。
func HandleClient(ctx context.Context, client *models.Client, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	defer func() {
		client.Conn.Close()
		handleDisconnect(registry, conns, client, logger)
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}

		// 受信したメッセージをJSON形式でデコード
		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Error("Error decoding message", zap.Error(err))
			broadcast.SendError(client, "Invalid message format", logger)
			continue
		}

		msgType, _ := msg["type"].(string)

		if msgType == "authenticate" {
			handleAuthenticate(ctx, client, msg, registry, conns, rdb, logger)
			continue
		}

		// 認証前はゲーム系アクションを一切受け付けない
		if !client.Authenticated {
			broadcast.SendError(client, "Not authenticated", logger)
			continue
		}

		switch msgType {
		case "create-game":
			handleCreateGame(ctx, client, registry, conns, rdb, logger)
		case "join-game":
			handleJoinGame(ctx, client, msg, registry, conns, rdb, logger)
		case "flip-card":
			handleFlipCard(client, msg, registry, conns, logger)
		case "leave-game":
			handleLeaveGame(ctx, client, registry, conns, rdb, logger)
		default:
			logger.Info("Received unknown message type", zap.Any("message", msg))
			broadcast.SendError(client, "Unknown message type", logger)
		}
	}
}

// 切断時の後片付け。登録上の離脱は仕様どおりベストエフォートで、
// 既にどこにも参加していなくてもエラーにしません。
func handleDisconnect(registry *game.Registry, conns *broadcast.Conns, client *models.Client, logger *zap.Logger) {
	sessionID := client.GameID
	if sessionID == "" {
		return
	}
	conns.Unbind(sessionID, client)

	if left, ok := registry.Leave(client.UserID); ok {
		broadcast.NotifyPlayerLeft(conns, left, client.UserID, logger)
		broadcast.BroadcastGameState(registry, conns, left, logger)
	}
	logger.Info("Client disconnected",
		zap.String("userID", client.UserID), zap.String("sessionID", sessionID))
}

// 現在の認証情報からプレイヤーを組み立てます。IDは必ずトークン由来で、
// クライアントが申告した識別子は使いません。
func playerFromClient(client *models.Client) *models.Player {
	return &models.Player{
		ID:     client.UserID,
		Name:   client.Name,
		Email:  client.Email,
		ConnID: client.ConnID,
	}
}
