package game

import (
	"fmt"
	"testing"
	"time"

	"pairserver/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() *Registry {
	return NewRegistry(10*time.Millisecond, nil, zap.NewNop())
}

func playerA() *models.Player {
	return &models.Player{ID: "user-a", Name: "Alice", Email: "alice@example.com", ConnID: "conn-a"}
}

func playerB() *models.Player {
	return &models.Player{ID: "user-b", Name: "Bob", Email: "bob@example.com", ConnID: "conn-b"}
}

// 2人そろってplaying状態になったセッションを用意するヘルパー
func startedSession(t *testing.T, reg *Registry) (string, *models.GameSession) {
	t.Helper()
	sessionID := reg.Create(playerA())
	require.True(t, reg.Join(sessionID, playerB()))
	session, ok := reg.Get(sessionID)
	require.True(t, ok)
	require.Equal(t, models.StatusPlaying, session.Status)
	return sessionID, session
}

func TestCreateSession(t *testing.T) {
	reg := newTestRegistry()
	sessionID := reg.Create(playerA())

	require.Len(t, sessionID, 4)

	session, ok := reg.Get(sessionID)
	require.True(t, ok)
	require.Equal(t, models.StatusWaiting, session.Status)
	require.Len(t, session.Players, 1)
	require.Len(t, session.Cards, CardsPerDeck)
	require.Equal(t, 0, session.Scores["user-a"])

	got, ok := reg.PlayerSession("user-a")
	require.True(t, ok)
	require.Equal(t, sessionID, got)
}

func TestCreateLeavesPreviousSession(t *testing.T) {
	reg := newTestRegistry()
	first := reg.Create(playerA())
	second := reg.Create(playerA())

	require.NotEqual(t, first, second)

	// 空になった最初のセッションは削除され、索引は新しい方を指す
	_, ok := reg.Get(first)
	require.False(t, ok)
	got, ok := reg.PlayerSession("user-a")
	require.True(t, ok)
	require.Equal(t, second, got)
}

func TestJoinStartsGame(t *testing.T) {
	reg := newTestRegistry()
	sessionID := reg.Create(playerA())

	require.True(t, reg.Join(sessionID, playerB()))

	session, _ := reg.Get(sessionID)
	require.Equal(t, models.StatusPlaying, session.Status)
	require.Len(t, session.Players, 2)
	require.NotNil(t, session.StartTime)
	require.NotNil(t, session.CurrentTurnStartTime)
	require.Contains(t, []int{0, 1}, session.CurrentPlayerIndex)
	require.Equal(t, int64(0), session.PlayerTotalTime["user-a"])
	require.Equal(t, int64(0), session.PlayerTotalTime["user-b"])
}

func TestJoinRejections(t *testing.T) {
	reg := newTestRegistry()
	sessionID, _ := startedSession(t, reg)

	// 存在しないセッション
	require.False(t, reg.Join("0000", &models.Player{ID: "user-c"}))

	// 満席かつplaying状態のセッションへの3人目
	before, _ := reg.Get(sessionID)
	playerCount := len(before.Players)
	require.False(t, reg.Join(sessionID, &models.Player{ID: "user-c", Name: "Carol"}))

	after, _ := reg.Get(sessionID)
	require.Len(t, after.Players, playerCount)
	_, ok := reg.PlayerSession("user-c")
	require.False(t, ok)
}

func TestJoinIdempotentRejoin(t *testing.T) {
	reg := newTestRegistry()
	sessionID := reg.Create(playerA())

	rejoining := playerA()
	rejoining.ConnID = "conn-a2"
	require.True(t, reg.Join(sessionID, rejoining))

	session, _ := reg.Get(sessionID)
	require.Len(t, session.Players, 1)
	require.Equal(t, models.StatusWaiting, session.Status)
	require.Equal(t, "conn-a2", session.Players[0].ConnID)
}

func TestLeaveDeletesEmptySession(t *testing.T) {
	reg := newTestRegistry()
	sessionID := reg.Create(playerA())

	got, ok := reg.Leave("user-a")
	require.True(t, ok)
	require.Equal(t, sessionID, got)

	_, ok = reg.Get(sessionID)
	require.False(t, ok)
	_, ok = reg.PlayerSession("user-a")
	require.False(t, ok)
}

func TestLeaveForceFinishesSession(t *testing.T) {
	reg := newTestRegistry()
	sessionID, _ := startedSession(t, reg)

	_, ok := reg.Leave("user-b")
	require.True(t, ok)

	session, found := reg.Get(sessionID)
	require.True(t, found)
	require.Equal(t, models.StatusFinished, session.Status)
	// 離脱による終了は勝敗判定を行わない
	require.Empty(t, session.Winner)
	require.Len(t, session.Players, 1)
	require.Equal(t, "user-a", session.Players[0].ID)
}

func TestLeaveUnknownPlayerIsNoop(t *testing.T) {
	reg := newTestRegistry()
	got, ok := reg.Leave("nobody")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestFlipCardRejections(t *testing.T) {
	reg := newTestRegistry()
	sessionID, session := startedSession(t, reg)

	current := session.Players[session.CurrentPlayerIndex]
	other := session.Players[(session.CurrentPlayerIndex+1)%2]
	cardID := session.Cards[0].ID

	tests := []struct {
		name      string
		sessionID string
		playerID  string
		cardID    string
	}{
		{"unknown session", "0000", current.ID, cardID},
		{"not your turn", sessionID, other.ID, cardID},
		{"unknown card", sessionID, current.ID, "99-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, pending := reg.FlipCard(tt.sessionID, tt.playerID, tt.cardID)
			require.False(t, accepted)
			require.False(t, pending)
			require.Empty(t, session.FlippedCards)
		})
	}
}

func TestFlipCardAcceptsAndLocksPair(t *testing.T) {
	reg := newTestRegistry()
	sessionID, session := startedSession(t, reg)
	current := session.Players[session.CurrentPlayerIndex]

	accepted, pending := reg.FlipCard(sessionID, current.ID, session.Cards[0].ID)
	require.True(t, accepted)
	require.False(t, pending)
	require.True(t, session.Cards[0].IsFlipped)

	// 同じカードの二度目のフリップは拒否
	accepted, _ = reg.FlipCard(sessionID, current.ID, session.Cards[0].ID)
	require.False(t, accepted)

	accepted, pending = reg.FlipCard(sessionID, current.ID, session.Cards[1].ID)
	require.True(t, accepted)
	require.True(t, pending)
	require.True(t, session.IsProcessingMatch)

	// 判定ロック中は3枚目を受け付けない
	accepted, _ = reg.FlipCard(sessionID, current.ID, session.Cards[2].ID)
	require.False(t, accepted)
	require.Len(t, session.FlippedCards, 2)
}

func TestFlipCardRejectedWhileWaiting(t *testing.T) {
	reg := newTestRegistry()
	sessionID := reg.Create(playerA())
	session, _ := reg.Get(sessionID)

	accepted, _ := reg.FlipCard(sessionID, "user-a", session.Cards[0].ID)
	require.False(t, accepted)
}

func TestGameStatePerRecipient(t *testing.T) {
	reg := newTestRegistry()
	sessionID, session := startedSession(t, reg)
	current := session.Players[session.CurrentPlayerIndex]
	other := session.Players[(session.CurrentPlayerIndex+1)%2]

	viewCurrent := reg.GameState(sessionID, current.ID)
	viewOther := reg.GameState(sessionID, other.ID)
	require.NotNil(t, viewCurrent)
	require.NotNil(t, viewOther)

	require.True(t, viewCurrent.IsYourTurn)
	require.False(t, viewOther.IsYourTurn)
	require.Equal(t, "Your turn!", viewCurrent.Message)
	require.Equal(t, "Waiting for opponent...", viewOther.Message)

	// ゲームの中身は受信者によらず同一
	require.Equal(t, viewCurrent.Game.Status, viewOther.Game.Status)
	require.Equal(t, viewCurrent.Game.CurrentPlayerIndex, viewOther.Game.CurrentPlayerIndex)

	// 非メンバーには返さない
	require.Nil(t, reg.GameState(sessionID, "stranger"))

	// スナップショットなので書き換えても権威状態に影響しない
	viewCurrent.Game.Cards[0].IsMatched = true
	require.False(t, session.Cards[0].IsMatched)
}

func TestCleanupInactiveBoundary(t *testing.T) {
	reg := newTestRegistry()
	oldID := reg.Create(playerA())
	youngID := reg.Create(playerB())
	threshold := 30 * time.Minute

	oldSession, _ := reg.Get(oldID)
	oldSession.Mu.Lock()
	oldSession.LastActivity = time.Now().Add(-threshold - time.Second)
	oldSession.Mu.Unlock()

	// 閾値ちょうど（とそれ未満）は回収対象にならない。経過時間の測定誤差を
	// 避けるため、わずかに閾値の内側に置く
	boundary, _ := reg.Get(youngID)
	boundary.Mu.Lock()
	boundary.LastActivity = time.Now().Add(-threshold + time.Second)
	boundary.Mu.Unlock()

	removed := reg.CleanupInactive(threshold)
	require.Equal(t, 1, removed)

	// 閾値を超えたセッションだけが消え、プレイヤー索引も掃除される
	_, ok := reg.Get(oldID)
	require.False(t, ok)
	_, ok = reg.PlayerSession("user-a")
	require.False(t, ok)

	// 閾値を超えていないセッションは残る
	_, ok = reg.Get(youngID)
	require.True(t, ok)
	_, ok = reg.PlayerSession("user-b")
	require.True(t, ok)
}

func TestSessionIDsUniqueAmongActive(t *testing.T) {
	reg := newTestRegistry()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		player := &models.Player{ID: fmt.Sprintf("user-%d", i), Name: "p"}
		sessionID := reg.Create(player)
		require.Len(t, sessionID, 4)
		require.False(t, seen[sessionID], "session ID %s reused while active", sessionID)
		seen[sessionID] = true
	}
}
