package service

import (
	"context"
	"errors"
	"sync"

	"marketplace/internal/domain"
	"marketplace/internal/notify"
	"marketplace/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// recorder captures sent notifications and optionally fails them
type recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recorder) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recorder) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.sent...)
}

// brokenStore fails every user lookup with a persistence error
type brokenStore struct {
	*store.MemoryStore
}

func (brokenStore) FindUserByName(context.Context, string) (*domain.User, error) {
	return nil, errors.Join(domain.ErrPersistence, errors.New("connection reset"))
}

func newAccounts(s store.Store) *Accounts {
	return NewAccounts(s, bcrypt.MinCost)
}
