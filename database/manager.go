package database

import (
	"context"
	"fmt"
	"sync"

	"blogging-platform/config"
)

// Manager owns the process-wide store connection.
type Manager struct {
	store Store
	mu    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return fmt.Errorf("store already connected")
	}

	store, err := NewStore(cfg.Type)
	if err != nil {
		return err
	}

	if err := store.Connect(ctx, cfg); err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Type, err)
	}

	m.store = store
	return nil
}

func (m *Manager) Store() Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store
}

func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}

	err := m.store.Disconnect(ctx)
	m.store = nil
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
