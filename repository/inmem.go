package repository

import (
	"database/sql"
	"sync"

	"go-ledger-api/model"

	"github.com/google/uuid"
)

// InmemAccountRepository is a mutex-guarded in-memory IAccountRepository.
// It backs unit tests and local runs without Postgres. The *sql.Tx
// arguments are ignored; the mutex is the transaction boundary.
type InmemAccountRepository struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*model.Account
	nextLogID int64
}

func NewInmemAccountRepository() *InmemAccountRepository {
	return &InmemAccountRepository{
		accounts: make(map[uuid.UUID]*model.Account),
	}
}

// Save stores a deep copy, so later mutations of the caller's aggregate
// do not leak into the store before the next Save.
func (r *InmemAccountRepository) Save(account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyAccount(account)
	for i := range stored.Logs {
		if stored.Logs[i].ID == 0 {
			r.nextLogID++
			stored.Logs[i].ID = r.nextLogID
		}
	}
	// Reflect assigned log ids back, as the Postgres implementation does.
	account.Logs = copyLogs(stored.Logs)
	r.accounts[account.ID] = stored
	return nil
}

func (r *InmemAccountRepository) Get(id uuid.UUID) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(account), nil
}

// Create claims the id under the lock, so two concurrent creates with
// the same id cannot both succeed.
func (r *InmemAccountRepository) Create(account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; ok {
		return ErrAccountExists
	}
	r.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *InmemAccountRepository) GetForUpdate(_ *sql.Tx, id uuid.UUID) (*model.Account, error) {
	return r.Get(id)
}

func (r *InmemAccountRepository) SaveTx(_ *sql.Tx, account *model.Account) error {
	return r.Save(account)
}

func copyAccount(account *model.Account) *model.Account {
	clone := *account
	clone.Logs = copyLogs(account.Logs)
	return &clone
}

func copyLogs(logs []model.AccountLog) []model.AccountLog {
	if logs == nil {
		return nil
	}
	clone := make([]model.AccountLog, len(logs))
	copy(clone, logs)
	return clone
}
