package gate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func newTestGate(t *testing.T, key string) (*FileGate, *time.Time) {
	t.Helper()
	g := New(t.TempDir(), domain.GateSettings{
		Enabled:     true,
		AllowedKeys: []string{"key123", "other"},
		APIKey:      key,
		MinInterval: 30 * time.Second,
	})
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }
	return g, &clock
}

func TestAdmit_Interval(t *testing.T) {
	g, clock := newTestGate(t, "key123")
	ctx := context.Background()

	require.NoError(t, g.Admit(ctx))

	*clock = clock.Add(10 * time.Second)
	err := g.Admit(ctx)
	assert.ErrorIs(t, err, domain.ErrRunThrottled)
	assert.Contains(t, err.Error(), "wait 20s")

	*clock = clock.Add(20 * time.Second)
	assert.NoError(t, g.Admit(ctx))
}

func TestAdmit_BadKey(t *testing.T) {
	for _, key := range []string{"", "wrong"} {
		g, _ := newTestGate(t, key)
		assert.ErrorIs(t, g.Admit(context.Background()), domain.ErrUnauthorized)

		_, err := os.Stat(g.path)
		assert.True(t, os.IsNotExist(err), "rejected runs must not be recorded")
	}
}

func TestAdmit_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	settings := domain.GateSettings{AllowedKeys: []string{"k"}, APIKey: "k", MinInterval: time.Minute}
	now := time.Now()

	first := New(dir, settings)
	first.now = func() time.Time { return now }
	require.NoError(t, first.Admit(context.Background()))

	second := New(dir, settings)
	second.now = func() time.Time { return now.Add(time.Second) }
	assert.ErrorIs(t, second.Admit(context.Background()), domain.ErrRunThrottled)
}

func TestLastRun_UnixSeconds(t *testing.T) {
	g, clock := newTestGate(t, "key123")
	stamp := float64(clock.Unix()) - 5.5
	require.NoError(t, os.WriteFile(g.path, []byte(strconv.FormatFloat(stamp, 'f', 3, 64)), 0o600))

	assert.ErrorIs(t, g.Admit(context.Background()), domain.ErrRunThrottled)
}

func TestLastRun_Garbage(t *testing.T) {
	g, _ := newTestGate(t, "key123")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(g.path), LastRunFile), []byte("nonsense"), 0o600))

	assert.NoError(t, g.Admit(context.Background()))
}
