package game

import (
	"fmt"
	"math"
	"sort"
	"time"

	"pairserver/models"

	"go.uber.org/zap"
)

// ScheduleMatchCheck は2枚目のフリップ受理後に呼ばれ、表示時間分だけ
// 遅らせてペア判定を予約します。両プレイヤーが2枚とも見えるようにする
// ためのプロダクト仕様で、遅延中も他セッションの処理は一切ブロック
// しません。タイマーはセッション削除時にのみキャンセルされます。
func (r *Registry) ScheduleMatchCheck(sessionID string, broadcaster Broadcaster) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	session.Mu.Lock()
	session.ResolveTimer = time.AfterFunc(r.revealDelay, func() {
		r.resolveMatch(sessionID)
		if broadcaster != nil {
			broadcaster.BroadcastGameUpdate(sessionID)
		}
	})
	session.Mu.Unlock()
}

// resolveMatch は表示時間経過後のペア判定本体です。未判定カードが
// 2枚ない場合は何もしないため、同じペアに対して二重に呼ばれても
// 安全です。判定ロックと未判定リストは成立・不成立にかかわらず
// 必ずクリアされます。
func (r *Registry) resolveMatch(sessionID string) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	session.Mu.Lock()

	if len(session.FlippedCards) != 2 {
		session.Mu.Unlock()
		return
	}

	updateTurnTimeLocked(session)

	card1 := findCardLocked(session, session.FlippedCards[0])
	card2 := findCardLocked(session, session.FlippedCards[1])

	var currentPlayer *models.Player
	if session.Status == models.StatusPlaying &&
		session.CurrentPlayerIndex < len(session.Players) {
		currentPlayer = session.Players[session.CurrentPlayerIndex]
	}

	if card1 == nil || card2 == nil || currentPlayer == nil {
		// 手番プレイヤーの離脱などで通常の判定ができない場合でも、
		// 盤面とロックは必ず元に戻す
		if card1 != nil && !card1.IsMatched {
			card1.IsFlipped = false
		}
		if card2 != nil && !card2.IsMatched {
			card2.IsFlipped = false
		}
		session.FlippedCards = []string{}
		session.IsProcessingMatch = false
		session.LastActivity = time.Now()
		session.Mu.Unlock()
		return
	}

	now := time.Now()
	if card1.FaceName == card2.FaceName {
		// ペア成立。手番は変わらず、同じプレイヤーの時計が再び走り出す
		card1.IsMatched = true
		card2.IsMatched = true
		card1.MatchedBy = currentPlayer.ID
		card2.MatchedBy = currentPlayer.ID
		session.Scores[currentPlayer.ID]++
		session.PlayerFinishTimes[currentPlayer.ID] = now
		turnStart := now
		session.CurrentTurnStartTime = &turnStart
		r.logger.Info("Pair matched",
			zap.String("sessionID", sessionID),
			zap.String("playerID", currentPlayer.ID),
			zap.String("face", card1.FaceName))
	} else {
		// 不成立。2枚とも裏に戻して手番を渡す
		card1.IsFlipped = false
		card2.IsFlipped = false
		session.CurrentPlayerIndex = (session.CurrentPlayerIndex + 1) % len(session.Players)
		turnStart := now
		session.CurrentTurnStartTime = &turnStart
	}

	session.FlippedCards = []string{}
	session.IsProcessingMatch = false

	var results []models.PlayerMatchStats
	if allMatchedLocked(session) {
		session.Status = models.StatusFinished
		finish := now
		session.FinishTime = &finish
		session.Winner = determineWinnerLocked(session)
		results = matchResultsLocked(session)
		r.logger.Info("Game finished",
			zap.String("sessionID", sessionID), zap.String("winner", session.Winner))
	}

	session.LastActivity = time.Now()
	session.Mu.Unlock()

	// 戦績通知はロックの外から投げっぱなしで行う
	if results != nil && r.notifier != nil {
		r.notifier.PublishMatchResult(results)
	}
}

// 現在の手番の経過時間をそのプレイヤーの累積思考時間に加算します。
func updateTurnTimeLocked(session *models.GameSession) {
	if session.CurrentTurnStartTime == nil ||
		session.CurrentPlayerIndex >= len(session.Players) {
		return
	}
	currentPlayer := session.Players[session.CurrentPlayerIndex]
	elapsed := time.Since(*session.CurrentTurnStartTime).Milliseconds()
	session.PlayerTotalTime[currentPlayer.ID] += elapsed
}

func allMatchedLocked(session *models.GameSession) bool {
	for _, card := range session.Cards {
		if !card.IsMatched {
			return false
		}
	}
	return len(session.Cards) > 0
}

// determineWinnerLocked は決定的な全順序で勝者を決めます。スコアの高い方、
// 同点なら最後のペア成立時刻が早い方、それも決まらなければプレイヤー
// リストの先頭です。このタイブレークは仕様として文書化された方針です。
func determineWinnerLocked(session *models.GameSession) string {
	if len(session.Players) == 0 {
		return ""
	}
	if len(session.Players) == 1 {
		return session.Players[0].ID
	}

	sorted := make([]*models.Player, len(session.Players))
	copy(sorted, session.Players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return session.Scores[sorted[i].ID] > session.Scores[sorted[j].ID]
	})

	first, second := sorted[0], sorted[1]
	if session.Scores[first.ID] != session.Scores[second.ID] {
		return first.ID
	}

	t1, ok1 := session.PlayerFinishTimes[first.ID]
	t2, ok2 := session.PlayerFinishTimes[second.ID]
	if ok1 && ok2 {
		if t1.Before(t2) {
			return first.ID
		}
		if t2.Before(t1) {
			return second.ID
		}
	}

	return session.Players[0].ID
}

// 対戦終了時に戦績コレクターへ送る1人分ずつの結果を組み立てます。
func matchResultsLocked(session *models.GameSession) []models.PlayerMatchStats {
	var duration int64
	if session.StartTime != nil && session.FinishTime != nil {
		duration = int64(session.FinishTime.Sub(*session.StartTime).Seconds())
	}

	results := make([]models.PlayerMatchStats, 0, len(session.Players))
	for _, p := range session.Players {
		results = append(results, models.PlayerMatchStats{
			Email:         p.Email,
			Score:         session.Scores[p.ID],
			MatchDuration: duration,
			IsWinner:      p.ID == session.Winner,
		})
	}
	return results
}

// gameMessageLocked はセッション状態から導出される表示用メッセージです。
// 副作用はなく、クライアント向けのリードモデルとしてのみ使われます。
func gameMessageLocked(session *models.GameSession, isYourTurn bool, playerID string) string {
	switch session.Status {
	case models.StatusWaiting:
		return "Waiting for another player to join..."
	case models.StatusPlaying:
		if isYourTurn {
			return "Your turn!"
		}
		return "Waiting for opponent..."
	case models.StatusFinished:
		if session.Winner == "" {
			return "Game finished!"
		}
		return finishedMessageLocked(session, playerID)
	default:
		return ""
	}
}

func finishedMessageLocked(session *models.GameSession, playerID string) string {
	var winner, loser *models.Player
	for _, p := range session.Players {
		if p.ID == session.Winner {
			winner = p
		} else {
			loser = p
		}
	}

	playerScore := session.Scores[playerID]
	winnerScore := session.Scores[session.Winner]
	isScoreTie := loser != nil && winnerScore == session.Scores[loser.ID]

	if session.Winner == playerID {
		if isScoreTie {
			if win, lose, ok := tieDurationsLocked(session, playerID, loser.ID); ok {
				return fmt.Sprintf("🎉 You won! Both found %d matches, but you were faster (%ds vs %ds)!",
					playerScore, win, lose)
			}
		}
		return fmt.Sprintf("🎉 You won! You found %d matches!", playerScore)
	}

	if isScoreTie && winner != nil {
		if win, lose, ok := tieDurationsLocked(session, session.Winner, playerID); ok {
			return fmt.Sprintf("😢 You lost! Both found %d matches, but %s was faster (%ds vs %ds)",
				playerScore, winner.Name, win, lose)
		}
	}
	winnerName := ""
	if winner != nil {
		winnerName = winner.Name
	}
	return fmt.Sprintf("😢 You lost! %s won with %d matches (you: %d)",
		winnerName, winnerScore, playerScore)
}

// 同点時の表示用に、開始から各プレイヤーの最終ペア成立までの秒数を返します。
func tieDurationsLocked(session *models.GameSession, winnerID, loserID string) (int64, int64, bool) {
	winTime, ok1 := session.PlayerFinishTimes[winnerID]
	loseTime, ok2 := session.PlayerFinishTimes[loserID]
	if !ok1 || !ok2 || session.StartTime == nil {
		return 0, 0, false
	}
	win := int64(math.Round(winTime.Sub(*session.StartTime).Seconds()))
	lose := int64(math.Round(loseTime.Sub(*session.StartTime).Seconds()))
	return win, lose, true
}
