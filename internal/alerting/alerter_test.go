package alerting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
	"anubis-watch/internal/storage/memory"
)

type captureNotifier struct {
	mu     sync.Mutex
	once   sync.Once
	alerts []*domain.AlertEvent
	done   chan struct{}
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{done: make(chan struct{})}
}

func (n *captureNotifier) Notify(_ context.Context, a *domain.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	n.once.Do(func() { close(n.done) })
	return nil
}

func testAlerter(t *testing.T, notifier *captureNotifier) (*Alerter, *memory.AlertStore) {
	t.Helper()
	store := memory.NewAlertStore()
	alerter := New(Options{
		Policy:   NewPolicy(config.DefaultConfig.Alerts),
		Alerts:   store,
		Notifier: notifier,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return alerter, store
}

func TestProcessEmitsOncePerPair(t *testing.T) {
	ctx := context.Background()
	notifier := newCaptureNotifier()
	alerter, store := testAlerter(t, notifier)

	next := snap(85, 40, domain.TierElite, domain.RiskLow)

	first, err := alerter.Process(ctx, "mintA", nil, next)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, domain.AlertCritical, first.Level)

	// Same pair again: silently absorbed.
	second, err := alerter.Process(ctx, "mintA", nil, next)
	require.NoError(t, err)
	assert.Nil(t, second)

	// A different mint for the same wallet is a fresh pair.
	third, err := alerter.Process(ctx, "mintB", nil, next)
	require.NoError(t, err)
	require.NotNil(t, third)

	alerts, err := store.GetByWallet(ctx, "wallet")
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	select {
	case <-notifier.done:
	case <-time.After(time.Second):
		t.Fatal("notifier was never invoked")
	}
}

func TestProcessConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	alerter, store := testAlerter(t, newCaptureNotifier())
	next := snap(85, 40, domain.TierElite, domain.RiskLow)

	var emitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alert, err := alerter.Process(ctx, "mint", nil, next)
			assert.NoError(t, err)
			if alert != nil {
				emitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), emitted.Load())
	alerts, err := store.GetByWallet(ctx, "wallet")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestProcessNonQualifyingSnapshot(t *testing.T) {
	ctx := context.Background()
	alerter, store := testAlerter(t, newCaptureNotifier())

	alert, err := alerter.Process(ctx, "mint", nil, snap(50, 10, domain.TierAmateur, domain.RiskMedium))
	require.NoError(t, err)
	assert.Nil(t, alert)

	alerts, err := store.GetByWallet(ctx, "wallet")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
