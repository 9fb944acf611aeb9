package stats

import (
	"encoding/json"

	"pairserver/models"

	"go.uber.org/zap"

	"github.com/nats-io/nats.go"
)

// 対戦終了イベントの配信サブジェクト。戦績コレクターが購読します。
const SubjectMatchConcluded = "stats.match-concluded"

// Notifier は対戦結果をNATSへ発行します。発行は投げっぱなしで、
// コレクターの死活は対戦の進行に影響しません。
type Notifier struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNotifier(nc *nats.Conn, logger *zap.Logger) *Notifier {
	return &Notifier{nc: nc, logger: logger}
}

// PublishMatchResult はプレイヤーごとに1件ずつ結果イベントを発行します。
func (n *Notifier) PublishMatchResult(results []models.PlayerMatchStats) {
	if n == nil || n.nc == nil {
		return
	}
	for _, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			n.logger.Error("Failed to marshal match result", zap.Error(err))
			continue
		}
		if err := n.nc.Publish(SubjectMatchConcluded, data); err != nil {
			n.logger.Error("Failed to publish match result",
				zap.String("email", result.Email), zap.Error(err))
		}
	}
}
