// Package gate implements driven.RunGate with an API key allow-list and a
// minimum interval between runs recorded in a last-run file.
package gate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure FileGate implements the interface.
var _ driven.RunGate = (*FileGate)(nil)

// LastRunFile is the file name used inside the data directory.
const LastRunFile = "last_run"

// FileGate admits runs presenting an allowed key no sooner than MinInterval
// after the previous admitted run. The last-run time survives restarts.
type FileGate struct {
	mu       sync.Mutex
	path     string
	key      string
	allowed  []string
	interval time.Duration
	now      func() time.Time
}

// New creates a gate recording run times under dataDir.
func New(dataDir string, settings domain.GateSettings) *FileGate {
	return &FileGate{
		path:     filepath.Join(dataDir, LastRunFile),
		key:      settings.APIKey,
		allowed:  settings.AllowedKeys,
		interval: settings.MinInterval,
		now:      time.Now,
	}
}

// Admit checks the key, then the interval, then records the run.
func (g *FileGate) Admit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.keyAllowed() {
		logger.Error("gate: invalid or missing API key")
		return domain.ErrUnauthorized
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	last, err := g.lastRun()
	if err != nil {
		return err
	}
	if !last.IsZero() {
		if elapsed := now.Sub(last); elapsed < g.interval {
			wait := int(math.Ceil((g.interval - elapsed).Seconds()))
			return fmt.Errorf("%w: please wait %ds", domain.ErrRunThrottled, wait)
		}
	}

	if err := g.record(now); err != nil {
		return err
	}
	logger.Debug("gate: run admitted")
	return nil
}

func (g *FileGate) keyAllowed() bool {
	if g.key == "" {
		return false
	}
	for _, k := range g.allowed {
		if subtle.ConstantTimeCompare([]byte(k), []byte(g.key)) == 1 {
			return true
		}
	}
	return false
}

func (g *FileGate) lastRun() (time.Time, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last run: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	// Unix seconds, possibly fractional.
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Warn("gate: ignoring unreadable last-run file %s", g.path)
		return time.Time{}, nil
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}

func (g *FileGate) record(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o700); err != nil {
		return fmt.Errorf("create gate dir: %w", err)
	}
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(t.UTC().Format(time.RFC3339Nano)), 0o600); err != nil {
		return fmt.Errorf("write last run: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		return fmt.Errorf("write last run: %w", err)
	}
	return nil
}
