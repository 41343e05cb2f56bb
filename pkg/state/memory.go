package state

import (
	"context"
	"fmt"
	"sync"
)

type InMemoryStateManager struct {
	lock     sync.RWMutex
	snapshot *Snapshot
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{}
}

func (m *InMemoryStateManager) Get(ctx context.Context) (*Snapshot, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.snapshot == nil {
		return nil, fmt.Errorf("game state has not been published")
	}

	return m.snapshot.Copy(), nil
}

func (m *InMemoryStateManager) Set(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.GameState == nil {
		return fmt.Errorf("game state is nil")
	}

	cp := snapshot.Copy()

	m.lock.Lock()
	defer m.lock.Unlock()
	m.snapshot = cp
	return nil
}
