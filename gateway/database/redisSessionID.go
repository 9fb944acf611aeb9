package database

import (
	"context"
	"encoding/json"
	"time"

	"pairserver/gateway/broadcast"
	"pairserver/models"

	"go.uber.org/zap"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SessionBinding はRedisに保存する再接続用の紐づけ情報です。
type SessionBinding struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	GameID string `json:"gameID"`
}

const sessionTokenTTL = 24 * time.Hour

// ValidateSessionToken はトークンに対応する紐づけをRedisから取り出します。
// 無効・期限切れの場合はnilを返します。
func ValidateSessionToken(ctx context.Context, rdb *redis.Client, token string, logger *zap.Logger) *SessionBinding {
	if token == "" || rdb == nil {
		return nil
	}

	bindingJSON, err := rdb.Get(ctx, "session:"+token).Result()
	if err != nil {
		logger.Info("Session token not found or expired", zap.Error(err))
		return nil
	}

	var binding SessionBinding
	if err := json.Unmarshal([]byte(bindingJSON), &binding); err != nil {
		logger.Error("Failed to decode session binding", zap.Error(err))
		return nil
	}
	return &binding
}

// GenerateAndStoreSessionToken は新しい再接続トークンを発行してRedisに
// 保存し、クライアントへ送り返します。旧トークンがあれば破棄します。
func GenerateAndStoreSessionToken(ctx context.Context, client *models.Client, rdb *redis.Client, logger *zap.Logger) error {
	if rdb == nil {
		return nil
	}

	if client.SessionToken != "" {
		rdb.Del(ctx, "session:"+client.SessionToken)
	}

	token := uuid.New().String()
	client.SessionToken = token
	if err := storeBinding(ctx, client, rdb); err != nil {
		logger.Error("Error storing session binding in Redis", zap.Error(err))
		return err
	}

	response := map[string]interface{}{
		"type":         "session-issued",
		"sessionToken": token,
		"userId":       client.UserID,
	}
	return broadcast.SendJSON(client, response, logger)
}

// UpdateSessionBinding はセッション参加・離脱のたびにトークンの紐づけを
// 上書きします。ベストエフォートで、失敗してもゲーム進行は続きます。
func UpdateSessionBinding(ctx context.Context, client *models.Client, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil || client.SessionToken == "" {
		return
	}
	if err := storeBinding(ctx, client, rdb); err != nil {
		logger.Error("Failed to update session binding", zap.Error(err))
	}
}

func storeBinding(ctx context.Context, client *models.Client, rdb *redis.Client) error {
	binding := SessionBinding{
		UserID: client.UserID,
		Name:   client.Name,
		Email:  client.Email,
		GameID: client.GameID,
	}
	bindingJSON, err := json.Marshal(binding)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, "session:"+client.SessionToken, bindingJSON, sessionTokenTTL).Err()
}
