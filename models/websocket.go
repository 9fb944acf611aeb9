package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Websocketクライアントを定義
type Client struct {
	Conn          *websocket.Conn
	ConnID        string // 接続ごとに発行するID（再接続で変わる）
	UserID        string // JWTから抽出したユーザーID
	Name          string
	Email         string
	GameID        string // 参加中のセッションコード。未参加なら空
	SessionToken  string // Redisに保存した再接続用トークン
	Authenticated bool

	// ブロードキャストとPing送信が並行して書き込むため、
	// 書き込みはこのミューテックスで直列化します。
	WriteMu sync.Mutex
}
