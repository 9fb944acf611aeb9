package actions

import (
	"context"
	"errors"

	"pairserver/auth"
	"pairserver/game"
	"pairserver/gateway/broadcast"
	"pairserver/gateway/database"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
)

// handleAuthenticate は外部IDプロバイダ発行のトークンを検証し、接続に
// 身元を紐づけます。失敗しても接続は閉じず、未認証のまま残します。
// 身元情報はトークンのクレームのみから取り、ペイロードで申告された
// identityやdisplayNameは信用しません。
func handleAuthenticate(ctx context.Context, client *models.Client, msg map[string]interface{}, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	token, _ := msg["token"].(string)

	claims, err := auth.ParseToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrNoSigningKey) {
			// サーバー側の設定不備。クライアントの再試行では直らない
			logger.Error("Authentication impossible - signing key missing")
			sendAuthResult(client, false, "Server authentication is misconfigured", logger)
			return
		}
		logger.Info("Authentication failed", zap.Error(err))
		sendAuthResult(client, false, "Invalid or expired token", logger)
		return
	}

	client.UserID = claims.UserID
	client.Name = claims.Name
	client.Email = claims.Email
	client.Authenticated = true
	logger.Info("Client authenticated",
		zap.String("userID", client.UserID), zap.String("connID", client.ConnID))

	sendAuthResult(client, true, "", logger)

	// 再接続トークンが提示されていれば以前のセッションへの紐づけを復元
	if previous, _ := msg["sessionToken"].(string); previous != "" {
		restoreBinding(ctx, client, previous, registry, conns, rdb, logger)
	}

	// 新しい再接続トークンを発行（Redisが無効な構成では何もしない）
	if err := database.GenerateAndStoreSessionToken(ctx, client, rdb, logger); err != nil {
		logger.Error("Failed to issue session token", zap.Error(err))
	}
}

func sendAuthResult(client *models.Client, success bool, errMessage string, logger *zap.Logger) {
	payload := map[string]interface{}{
		"type":    "authenticated",
		"success": success,
	}
	if errMessage != "" {
		payload["error"] = errMessage
	}
	if err := broadcast.SendJSON(client, payload, logger); err != nil {
		logger.Error("Failed to send auth result", zap.Error(err))
	}
}

// 以前の接続が持っていたゲームへの紐づけを復元します。対象セッションが
// 既に消えている、または参加できない状態なら黙って諦めます。
func restoreBinding(ctx context.Context, client *models.Client, token string, registry *game.Registry, conns *broadcast.Conns, rdb *redis.Client, logger *zap.Logger) {
	binding := database.ValidateSessionToken(ctx, rdb, token, logger)
	if binding == nil || binding.UserID != client.UserID || binding.GameID == "" {
		return
	}
	if rdb != nil {
		rdb.Del(ctx, "session:"+token)
	}

	if !registry.Join(binding.GameID, playerFromClient(client)) {
		return
	}
	client.GameID = binding.GameID
	conns.Bind(binding.GameID, client)
	broadcast.BroadcastGameState(registry, conns, binding.GameID, logger)
	logger.Info("Session binding restored",
		zap.String("userID", client.UserID), zap.String("sessionID", binding.GameID))
}
