package actions

import (
	"pairserver/game"
	"pairserver/gateway/broadcast"
	"pairserver/models"

	"go.uber.org/zap"
)

// handleFlipCard はカードのフリップ要求をレジストリへ中継します。
// 受理されたら全員へ新しい状態を配り、2枚目だった場合は表示時間後の
// ペア判定を予約します。拒否は本人にだけ伝え、状態は変わりません。
func handleFlipCard(client *models.Client, msg map[string]interface{}, registry *game.Registry, conns *broadcast.Conns, logger *zap.Logger) {
	cardID, _ := msg["cardId"].(string)
	if cardID == "" {
		broadcast.SendError(client, "Missing card ID", logger)
		return
	}

	sessionID, ok := registry.PlayerSession(client.UserID)
	if !ok {
		broadcast.SendError(client, "You are not in a game", logger)
		return
	}

	accepted, pairPending := registry.FlipCard(sessionID, client.UserID, cardID)
	if !accepted {
		broadcast.SendError(client, "Card flip rejected", logger)
		return
	}

	broadcast.BroadcastGameState(registry, conns, sessionID, logger)

	if pairPending {
		updater := &broadcast.Updater{Reg: registry, Conns: conns, Logger: logger}
		registry.ScheduleMatchCheck(sessionID, updater)
	}
}
