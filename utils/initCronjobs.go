package utils

import (
	"time"

	"pairserver/game"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronCleaner は非アクティブなセッションを定期的に回収するスイーパーを
// 起動します。閾値を「超えた」セッションだけが対象で、ちょうど閾値の
// ものは回収されません。返り値のcronは停止用です。
func CronCleaner(registry *game.Registry, sweepSpec string, maxAge time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(sweepSpec, func() {
		removed := registry.CleanupInactive(maxAge)
		if removed > 0 {
			logger.Info("非アクティブセッションを回収しました",
				zap.Int("removed", removed),
				zap.Duration("maxAge", maxAge))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
