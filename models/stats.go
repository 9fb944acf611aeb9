package models

// PlayerMatchStats は対戦終了時に戦績コレクターへ通知する1人分の結果です。
// フィールド名はコレクター側の取り込み形式に合わせています。
type PlayerMatchStats struct {
	Email         string `json:"email"`
	Score         int    `json:"score"`
	MatchDuration int64  `json:"matchDuration"` // 対戦開始からの秒数
	IsWinner      bool   `json:"isWinner"`
}
