package models

import (
	"sync"
	"time"
)

// セッションのステータス
const (
	StatusWaiting  = "waiting"  // 2人目の参加待ち
	StatusPlaying  = "playing"  // 対戦中
	StatusFinished = "finished" // 全ペア成立、または離脱による終了
)

// GameSession は1対戦分の権威状態です。JSONタグはそのままクライアントへ
// 配信される形式で、Mu・ResolveTimerは配信対象外です。
type GameSession struct {
	ID                   string               `json:"id"` // 4桁の数字コード
	Players              []*Player            `json:"players"`
	Cards                []*Card              `json:"cards"`
	CurrentPlayerIndex   int                  `json:"currentPlayerIndex"`
	Status               string               `json:"status"`
	FlippedCards         []string             `json:"flippedCards"` // 未判定の表向きカードID（最大2枚）
	IsProcessingMatch    bool                 `json:"isProcessingMatch"`
	Scores               map[string]int       `json:"scores"`
	PlayerFinishTimes    map[string]time.Time `json:"playerFinishTimes"` // プレイヤーごとの最後にペアを取った時刻
	PlayerTotalTime      map[string]int64     `json:"playerTotalTime"`   // 累積思考時間（ミリ秒）
	StartTime            *time.Time           `json:"startTime,omitempty"`
	CurrentTurnStartTime *time.Time           `json:"currentTurnStartTime,omitempty"`
	FinishTime           *time.Time           `json:"finishTime,omitempty"`
	Winner               string               `json:"winner,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	LastActivity         time.Time            `json:"lastActivity"`

	// セッション単位の排他。別セッション同士の処理を直列化しないために
	// レジストリのロックとは分離しています。
	Mu sync.Mutex `json:"-"`

	// 2枚目のフリップ受理時にセットされる判定待ちタイマー。
	// セッション削除時のみキャンセルされます。
	ResolveTimer *time.Timer `json:"-"`
}

// GameStateView は受信者ごとの配信用スナップショットです。IsYourTurnと
// Messageだけが受信者によって異なり、Gameの中身は全員共通です。
type GameStateView struct {
	Game          *GameSession `json:"game"`
	CurrentPlayer *Player      `json:"currentPlayer,omitempty"`
	IsYourTurn    bool         `json:"isYourTurn"`
	Message       string       `json:"message"`
}
