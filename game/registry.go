package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pairserver/models"

	"go.uber.org/zap"
)

// StatsNotifier は対戦終了時の戦績通知先です。通知は投げっぱなしで、
// 失敗しても対戦の進行には影響しません。
type StatsNotifier interface {
	PublishMatchResult(results []models.PlayerMatchStats)
}

// Broadcaster は判定完了後にセッションの全接続へ状態を配るための
// コールバックです。実装はゲートウェイ側が持ちます。
type Broadcaster interface {
	BroadcastGameUpdate(sessionID string)
}

// Registry はアクティブな全セッションを保持するレジストリです。
// muはマップ2つ（セッション本体とプレイヤー→セッションの索引）だけを守り、
// セッション内部の状態は各セッションのミューテックスで守ります。
// これにより別ゲーム同士の処理が直列化されることはありません。
type Registry struct {
	mu            sync.RWMutex
	sessions      map[string]*models.GameSession
	playerSession map[string]string

	randMu  sync.Mutex
	randGen *rand.Rand

	revealDelay time.Duration
	notifier    StatsNotifier
	logger      *zap.Logger
}

func NewRegistry(revealDelay time.Duration, notifier StatsNotifier, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:      make(map[string]*models.GameSession),
		playerSession: make(map[string]string),
		randGen:       CreateLocalRandGenerator(),
		revealDelay:   revealDelay,
		notifier:      notifier,
		logger:        logger,
	}
}

// Create は新しいセッションを作成し、作成者を1人目として登録します。
// プレイヤーが別のセッションに参加中だった場合は先にそこから離脱させ、
// 「1プレイヤーにつきアクティブなセッションは最大1つ」を維持します。
func (r *Registry) Create(player *models.Player) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.playerSession[player.ID]; ok {
		r.leaveLocked(player.ID)
	}

	r.randMu.Lock()
	sessionID := r.newSessionIDLocked()
	cards := NewDeck(r.randGen)
	r.randMu.Unlock()

	now := time.Now()
	session := &models.GameSession{
		ID:                 sessionID,
		Players:            []*models.Player{player},
		Cards:              cards,
		CurrentPlayerIndex: 0,
		Status:             models.StatusWaiting,
		FlippedCards:       []string{},
		Scores:             map[string]int{player.ID: 0},
		PlayerFinishTimes:  map[string]time.Time{},
		PlayerTotalTime:    map[string]int64{},
		CreatedAt:          now,
		LastActivity:       now,
	}

	r.sessions[sessionID] = session
	r.playerSession[player.ID] = sessionID
	r.logger.Info("Session created",
		zap.String("sessionID", sessionID), zap.String("playerID", player.ID))
	return sessionID
}

// Join はプレイヤーをセッションに参加させます。セッションが存在しない、
// 満席、またはwaiting以外の場合はfalseを返します。既に着席している
// プレイヤーの再参加は状態を変えずに成功します。2人目の参加で対戦が
// 開始されます。
func (r *Registry) Join(sessionID string, player *models.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		r.logger.Info("Join rejected - session not found", zap.String("sessionID", sessionID))
		return false
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	// 再参加（リコネクト）は接続識別子だけ更新するno-op成功
	for _, p := range session.Players {
		if p.ID == player.ID {
			p.ConnID = player.ConnID
			r.playerSession[player.ID] = sessionID
			session.LastActivity = time.Now()
			return true
		}
	}

	if len(session.Players) >= 2 {
		r.logger.Info("Join rejected - session full", zap.String("sessionID", sessionID))
		return false
	}
	if session.Status != models.StatusWaiting {
		r.logger.Info("Join rejected - not waiting",
			zap.String("sessionID", sessionID), zap.String("status", session.Status))
		return false
	}

	// 参加者が別セッションに残っていた場合は索引の一意性を保つため離脱させる
	if old, ok := r.playerSession[player.ID]; ok && old != sessionID {
		r.leaveLocked(player.ID)
	}

	session.Players = append(session.Players, player)
	session.Scores[player.ID] = 0
	r.playerSession[player.ID] = sessionID

	if len(session.Players) == 2 {
		r.startGameLocked(session)
	}

	session.LastActivity = time.Now()
	r.logger.Info("Player joined",
		zap.String("sessionID", sessionID), zap.String("playerID", player.ID))
	return true
}

// 2人そろったので対戦開始。先手はランダムに決定します。
func (r *Registry) startGameLocked(session *models.GameSession) {
	now := time.Now()
	session.Status = models.StatusPlaying
	session.StartTime = &now

	for _, p := range session.Players {
		session.PlayerTotalTime[p.ID] = 0
	}

	r.randMu.Lock()
	session.CurrentPlayerIndex = r.randGen.Intn(2)
	r.randMu.Unlock()

	turnStart := now
	session.CurrentTurnStartTime = &turnStart
	session.LastActivity = now
	r.logger.Info("Game started",
		zap.String("sessionID", session.ID),
		zap.Int("firstPlayerIndex", session.CurrentPlayerIndex))
}

// Leave はプレイヤーを参加中のセッションから離脱させ、そのセッションIDを
// 返します。どこにも参加していない場合は何もせずfalseを返します。
// 最後の1人が抜けたセッションは即座に削除され、1人だけ残った対戦中の
// セッションは勝者なしのfinishedになります。
func (r *Registry) Leave(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(playerID)
}

func (r *Registry) leaveLocked(playerID string) (string, bool) {
	sessionID, ok := r.playerSession[playerID]
	if !ok {
		return "", false
	}
	delete(r.playerSession, playerID)

	session, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	remaining := session.Players[:0]
	for _, p := range session.Players {
		if p.ID != playerID {
			remaining = append(remaining, p)
		}
	}
	session.Players = remaining
	delete(session.Scores, playerID)

	if len(session.Players) == 0 {
		// 誰もいなくなったので削除。判定待ちタイマーはここでのみ止める
		if session.ResolveTimer != nil {
			session.ResolveTimer.Stop()
		}
		delete(r.sessions, sessionID)
		r.logger.Info("Session deleted - empty", zap.String("sessionID", sessionID))
	} else {
		// 相手が残っている場合は勝者なしの中断終了
		session.Status = models.StatusFinished
		session.LastActivity = time.Now()
		r.logger.Info("Session finished - player left",
			zap.String("sessionID", sessionID), zap.String("playerID", playerID))
	}
	return sessionID, true
}

// Get はセッションを返します。
func (r *Registry) Get(sessionID string) (*models.GameSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

// PlayerSession はプレイヤーが参加中のセッションIDを返します。
func (r *Registry) PlayerSession(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.playerSession[playerID]
	return sessionID, ok
}

// FlipCard は手番プレイヤーによるカードのフリップを処理します。
// 受理された場合、2枚目なら判定ロックを立ててpairPending=trueを返します。
// 呼び出し側はpairPendingを見てScheduleMatchCheckを呼びます。
// 拒否の場合は状態を一切変更しません。
func (r *Registry) FlipCard(sessionID, playerID, cardID string) (accepted, pairPending bool) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false, false
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	if session.Status != models.StatusPlaying || session.IsProcessingMatch {
		return false, false
	}
	if session.CurrentPlayerIndex >= len(session.Players) {
		return false, false
	}
	if session.Players[session.CurrentPlayerIndex].ID != playerID {
		return false, false
	}

	card := findCardLocked(session, cardID)
	if card == nil || card.IsFlipped || card.IsMatched {
		return false, false
	}

	card.IsFlipped = true
	session.FlippedCards = append(session.FlippedCards, cardID)

	// 2枚そろったら判定が終わるまで以降のフリップを拒否する
	if len(session.FlippedCards) == 2 {
		session.IsProcessingMatch = true
		pairPending = true
	}

	session.LastActivity = time.Now()
	return true, pairPending
}

// GameState は受信者ごとの配信用スナップショットを作ります。プレイヤーが
// セッションのメンバーでない場合はnilを返します。
func (r *Registry) GameState(sessionID, playerID string) *models.GameStateView {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	session.Mu.Lock()
	defer session.Mu.Unlock()

	member := false
	for _, p := range session.Players {
		if p.ID == playerID {
			member = true
			break
		}
	}
	if !member {
		return nil
	}

	var currentPlayer *models.Player
	if session.CurrentPlayerIndex < len(session.Players) {
		cp := *session.Players[session.CurrentPlayerIndex]
		currentPlayer = &cp
	}
	isYourTurn := session.Status == models.StatusPlaying &&
		currentPlayer != nil && currentPlayer.ID == playerID

	return &models.GameStateView{
		Game:          snapshotLocked(session),
		CurrentPlayer: currentPlayer,
		IsYourTurn:    isYourTurn,
		Message:       gameMessageLocked(session, isYourTurn, playerID),
	}
}

// CleanupInactive は最終アクティビティからmaxAgeを「超えて」経過した
// セッションを削除し、削除数を返します。ちょうど閾値のセッションは
// 残します。スイーパーから定期的に呼ばれます。
func (r *Registry) CleanupInactive(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for sessionID, session := range r.sessions {
		session.Mu.Lock()
		expired := now.Sub(session.LastActivity) > maxAge
		if expired {
			if session.ResolveTimer != nil {
				session.ResolveTimer.Stop()
			}
			for _, p := range session.Players {
				delete(r.playerSession, p.ID)
			}
		}
		session.Mu.Unlock()

		if expired {
			delete(r.sessions, sessionID)
			removed++
			r.logger.Info("Session evicted - inactive", zap.String("sessionID", sessionID))
		}
	}
	return removed
}

// アクティブなセッションの中で一意な4桁の数字コードを生成します。
// 衝突した場合は引き直します。r.muとr.randMuを保持して呼ぶこと。
func (r *Registry) newSessionIDLocked() string {
	for {
		sessionID := fmt.Sprintf("%d", 1000+r.randGen.Intn(9000))
		if _, exists := r.sessions[sessionID]; !exists {
			return sessionID
		}
	}
}

func findCardLocked(session *models.GameSession, cardID string) *models.Card {
	for _, card := range session.Cards {
		if card.ID == cardID {
			return card
		}
	}
	return nil
}

// snapshotLocked はセッションの配信用コピーを作ります。呼び出し側が
// セッションのロックを保持している前提で、コピーはロックを離れた後も
// 安全にエンコードできます。
func snapshotLocked(s *models.GameSession) *models.GameSession {
	cp := &models.GameSession{
		ID:                 s.ID,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		Status:             s.Status,
		IsProcessingMatch:  s.IsProcessingMatch,
		Winner:             s.Winner,
		CreatedAt:          s.CreatedAt,
		LastActivity:       s.LastActivity,
	}

	cp.Players = make([]*models.Player, len(s.Players))
	for i, p := range s.Players {
		player := *p
		cp.Players[i] = &player
	}
	cp.Cards = make([]*models.Card, len(s.Cards))
	for i, c := range s.Cards {
		card := *c
		cp.Cards[i] = &card
	}
	cp.FlippedCards = append([]string{}, s.FlippedCards...)

	cp.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		cp.Scores[k] = v
	}
	cp.PlayerFinishTimes = make(map[string]time.Time, len(s.PlayerFinishTimes))
	for k, v := range s.PlayerFinishTimes {
		cp.PlayerFinishTimes[k] = v
	}
	cp.PlayerTotalTime = make(map[string]int64, len(s.PlayerTotalTime))
	for k, v := range s.PlayerTotalTime {
		cp.PlayerTotalTime[k] = v
	}

	if s.StartTime != nil {
		t := *s.StartTime
		cp.StartTime = &t
	}
	if s.CurrentTurnStartTime != nil {
		t := *s.CurrentTurnStartTime
		cp.CurrentTurnStartTime = &t
	}
	if s.FinishTime != nil {
		t := *s.FinishTime
		cp.FinishTime = &t
	}
	return cp
}
