package utils

import (
	"testing"
	"time"

	"pairserver/game"
	"pairserver/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronCleanerEvictsStaleSessions(t *testing.T) {
	registry := game.NewRegistry(time.Millisecond, nil, zap.NewNop())
	sessionID := registry.Create(&models.Player{ID: "user-a", Name: "Alice"})

	session, ok := registry.Get(sessionID)
	require.True(t, ok)
	session.Mu.Lock()
	session.LastActivity = time.Now().Add(-time.Hour)
	session.Mu.Unlock()

	sweeper, err := CronCleaner(registry, "@every 100ms", 30*time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		_, ok := registry.Get(sessionID)
		return !ok
	}, 2*time.Second, 50*time.Millisecond)
}

func TestCronCleanerRejectsBadSpec(t *testing.T) {
	registry := game.NewRegistry(time.Millisecond, nil, zap.NewNop())
	_, err := CronCleaner(registry, "not a spec", time.Minute, zap.NewNop())
	require.Error(t, err)
}
