package models

// Player は1人のプレイヤーを表します。IDは外部IDプロバイダ発行の安定した
// ユーザーIDで、ConnIDは再接続のたびに変わる接続識別子です。
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	ConnID string `json:"socketId,omitempty"`
}
