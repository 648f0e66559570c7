package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-app/internal/infrastructure/memory"
)

func newTestService() *Service {
	s := NewService(memory.NewStore().Repositories().LoginAudits, nil)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestRecord_Consultas(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	require.NoError(t, s.Record(ctx, "admin", "10.0.0.1", "curl", true))
	require.NoError(t, s.Record(ctx, " ana ", "10.0.0.2", "firefox", false))
	require.NoError(t, s.Record(ctx, "admin", "10.0.0.1", "curl", false))

	failed, err := s.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "admin", failed[0].Username, "el más nuevo primero")
	assert.Equal(t, "ana", failed[1].Username, "el username se normaliza")

	byUser, err := s.ByUser(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.False(t, byUser[0].Successful)
	assert.True(t, byUser[1].Successful)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].LoginTime.Before(all[2].LoginTime))
}

func TestRecent_Limita(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	for i := 0; i < RecentLimit+5; i++ {
		require.NoError(t, s.Record(ctx, "admin", "127.0.0.1", "", true))
	}

	recent, err := s.Recent(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, RecentLimit)
	assert.True(t, recent[0].LoginTime.After(recent[len(recent)-1].LoginTime))
}
