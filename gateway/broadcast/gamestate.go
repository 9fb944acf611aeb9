package broadcast

import (
	"encoding/json"

	"pairserver/game"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/gorilla/websocket"
)

// SendJSON はクライアントへの書き込みを直列化して送信するヘルパーです。
func SendJSON(client *models.Client, payload interface{}, logger *zap.Logger) error {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal payload", zap.Error(err))
		return err
	}
	client.WriteMu.Lock()
	defer client.WriteMu.Unlock()
	return client.Conn.WriteMessage(websocket.TextMessage, data)
}

// SendError は起こしたクライアントだけに型付きエラーを返します。
// 拒否されたアクションは状態を変えず、他の接続には何も配りません。
func SendError(client *models.Client, message string, logger *zap.Logger) {
	payload := map[string]interface{}{
		"type":    "game-error",
		"message": message,
	}
	if err := SendJSON(client, payload, logger); err != nil {
		logger.Error("Failed to send error message",
			zap.String("userID", client.UserID), zap.Error(err))
	}
}

// BroadcastGameState はセッションに紐づく全接続へ最新状態を配ります。
// isYourTurnとメッセージだけが受信者ごとに異なり、game本体は全員同じ
// スナップショットです。
func BroadcastGameState(reg *game.Registry, conns *Conns, sessionID string, logger *zap.Logger) {
	for _, client := range conns.Session(sessionID) {
		view := reg.GameState(sessionID, client.UserID)
		if view == nil {
			continue
		}
		payload := map[string]interface{}{
			"type":          "game-state-updated",
			"game":          view.Game,
			"currentPlayer": view.CurrentPlayer,
			"isYourTurn":    view.IsYourTurn,
			"message":       view.Message,
		}
		if err := SendJSON(client, payload, logger); err != nil {
			logger.Error("Failed to broadcast game state",
				zap.String("sessionID", sessionID),
				zap.String("userID", client.UserID), zap.Error(err))
		}
	}
}

// NotifyPlayerJoined は参加者本人以外の接続に新しいプレイヤーを通知します。
func NotifyPlayerJoined(conns *Conns, sessionID string, player *models.Player, logger *zap.Logger) {
	payload := map[string]interface{}{
		"type":   "player-joined",
		"player": player,
	}
	for _, client := range conns.Session(sessionID) {
		if client.UserID == player.ID {
			continue
		}
		if err := SendJSON(client, payload, logger); err != nil {
			logger.Error("Failed to send player-joined",
				zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
}

// NotifyPlayerLeft は残っている接続へ離脱を通知します。
func NotifyPlayerLeft(conns *Conns, sessionID, playerID string, logger *zap.Logger) {
	payload := map[string]interface{}{
		"type":     "player-left",
		"playerId": playerID,
	}
	for _, client := range conns.Session(sessionID) {
		if err := SendJSON(client, payload, logger); err != nil {
			logger.Error("Failed to send player-left",
				zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
}

// Updater は判定タイマー完了後のブロードキャストを担う game.Broadcaster
// の実装です。ゲーム終了を検知した場合はgame-finishedも配ります。
type Updater struct {
	Reg    *game.Registry
	Conns  *Conns
	Logger *zap.Logger
}

func (u *Updater) BroadcastGameUpdate(sessionID string) {
	BroadcastGameState(u.Reg, u.Conns, sessionID, u.Logger)

	clients := u.Conns.Session(sessionID)
	if len(clients) == 0 {
		return
	}
	view := u.Reg.GameState(sessionID, clients[0].UserID)
	if view == nil || view.Game.Status != models.StatusFinished || view.Game.Winner == "" {
		return
	}

	payload := map[string]interface{}{
		"type":        "game-finished",
		"winner":      view.Game.Winner,
		"finalScores": view.Game.Scores,
	}
	for _, client := range clients {
		if err := SendJSON(client, payload, u.Logger); err != nil {
			u.Logger.Error("Failed to send game-finished",
				zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
}
