package broadcast

import (
	"sync"

	"pairserver/models"
)

// Conns はセッションコードごとの購読接続を保持します。ゲーム状態そのもの
// とは切り離されており、セッション側はトランスポートを一切知りません。
type Conns struct {
	mu        sync.RWMutex
	bySession map[string]map[*models.Client]bool
}

func NewConns() *Conns {
	return &Conns{bySession: make(map[string]map[*models.Client]bool)}
}

// Bind は接続をセッションの購読者に加えます。
func (c *Conns) Bind(sessionID string, client *models.Client) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.bySession[sessionID]
	if !ok {
		set = make(map[*models.Client]bool)
		c.bySession[sessionID] = set
	}
	set[client] = true
}

// Unbind は接続を購読者から外します。存在しない組み合わせは無視します。
func (c *Conns) Unbind(sessionID string, client *models.Client) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.bySession[sessionID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(c.bySession, sessionID)
		}
	}
}

// Session はセッションに紐づく接続の一覧を返します。
func (c *Conns) Session(sessionID string) []*models.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clients := make([]*models.Client, 0, len(c.bySession[sessionID]))
	for client := range c.bySession[sessionID] {
		clients = append(clients, client)
	}
	return clients
}
