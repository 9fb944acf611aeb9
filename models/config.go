package models

// Config 構造体はサーバー設定を保持します。config.jsonから読み込まれ、
// 欠けている値にはデフォルトが適用されます。
type Config struct {
	ListenAddr        string   `json:"listen_addr"`
	AllowedOrigins    []string `json:"allowed_origins"`
	RevealDelayMs     int      `json:"reveal_delay_ms"`     // 2枚目フリップから判定までの表示時間
	SessionMaxAgeMin  int      `json:"session_max_age_min"` // スイーパーの非アクティブ閾値
	SweepSpec         string   `json:"sweep_spec"`          // cron書式。例: "@every 1m"
	NatsURL           string   `json:"nats_url"`            // 空なら戦績通知は無効
}
