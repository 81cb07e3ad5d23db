package aggregator

import "sync"

// walletLocks serializes profile mutation per wallet key. Cross-wallet
// operations lock endpoints in canonical order to avoid deadlock.
type walletLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[string]*sync.Mutex)}
}

func (w *walletLocks) get(wallet string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[wallet]
	if !ok {
		l = &sync.Mutex{}
		w.locks[wallet] = l
	}
	return l
}

// lock acquires the per-wallet lock and returns the unlock function.
func (w *walletLocks) lock(wallet string) func() {
	l := w.get(wallet)
	l.Lock()
	return l.Unlock
}

// lockPair acquires both wallet locks in canonical order.
func (w *walletLocks) lockPair(a, b string) func() {
	if b < a {
		a, b = b, a
	}
	la, lb := w.get(a), w.get(b)
	la.Lock()
	lb.Lock()
	return func() {
		lb.Unlock()
		la.Unlock()
	}
}
