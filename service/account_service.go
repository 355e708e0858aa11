// file: service/account_service.go

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrCannotCreateAccount = errors.New("cannot create account: id already taken")
	ErrSameAccountTransfer = errors.New("cannot transfer money to the same account")
)

const accountCacheTTL = 10 * time.Minute

// AccountService orchestrates the Account aggregate against persistence.
// Every business rule lives in the aggregate; this layer loads state,
// invokes it and persists the outcome. All domain failures are terminal
// and surfaced to the caller unchanged.
type AccountService struct {
	db    *sql.DB
	repo  repository.IAccountRepository
	cache ICacheClient
}

// NewAccountService wires the service. cache may be nil; caching is then
// skipped entirely, which keeps unit tests free of Redis.
func NewAccountService(db *sql.DB, repo repository.IAccountRepository, cache ICacheClient) *AccountService {
	return &AccountService{db: db, repo: repo, cache: cache}
}

// CreateAccount opens a zero-balance account under a caller-supplied id.
func (s *AccountService) CreateAccount(ctx context.Context, id uuid.UUID, currency model.Currency) (uuid.UUID, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": id,
		"currency":   currency,
	})
	log.Info("Creating account")

	// A single insert, not check-then-save: the repository rejects a
	// taken id atomically, so two concurrent creates cannot both win.
	account := model.NewAccount(id, currency)
	if err := s.repo.Create(account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return uuid.Nil, ErrCannotCreateAccount
		}
		return uuid.Nil, fmt.Errorf("could not create account: %w", err)
	}

	log.Info("Account created")
	return account.ID, nil
}

// DepositAccount credits an account and returns its new balance. The
// read-modify-write runs with the row locked inside one transaction, the
// same pipeline transfers use; an unlocked Get-then-Save would let a
// deposit racing a committed transfer write back the stale balance.
func (s *AccountService) DepositAccount(ctx context.Context, id uuid.UUID, money model.Money) (model.Money, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": id,
		"amount":     money.Amount,
		"currency":   money.Currency,
	})
	log.Info("Depositing into account")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Money{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.repo.GetForUpdate(tx, id)
	if err != nil {
		return model.Money{}, err
	}

	balance, err := account.Credit(money)
	if err != nil {
		return model.Money{}, err
	}

	if err := s.repo.SaveTx(tx, account); err != nil {
		return model.Money{}, fmt.Errorf("could not save account after deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Money{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.invalidateCache(ctx, id)
	log.WithField("balance", balance.Amount).Info("Deposit completed")
	return balance, nil
}

// MoneyTransfer debits the source account (principal plus commission) and
// credits the destination, inside one database transaction. Both account
// rows are locked in ascending id order, so two opposing transfers over
// the same pair cannot deadlock.
func (s *AccountService) MoneyTransfer(ctx context.Context, sourceID, destinationID uuid.UUID, money model.Money) error {
	log := logger.Log.WithFields(logrus.Fields{
		"source_account_id":      sourceID,
		"destination_account_id": destinationID,
		"amount":                 money.Amount,
		"currency":               money.Currency,
	})
	log.Info("Starting money transfer")

	if sourceID == destinationID {
		return ErrSameAccountTransfer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	first, second := sourceID, destinationID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*model.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		account, err := s.repo.GetForUpdate(tx, id)
		if err != nil {
			return err
		}
		locked[id] = account
	}
	source, destination := locked[sourceID], locked[destinationID]

	if err := source.Debit(destination, money); err != nil {
		return err
	}

	if err := s.repo.SaveTx(tx, source); err != nil {
		return fmt.Errorf("could not save source account: %w", err)
	}
	if err := s.repo.SaveTx(tx, destination); err != nil {
		return fmt.Errorf("could not save destination account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	s.invalidateCache(ctx, sourceID, destinationID)
	log.Info("Transfer completed successfully")
	return nil
}

// GetAccount returns an account's current state, utilizing a cache-aside
// strategy on the read path.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	cacheKey := accountCacheKey(id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var account model.Account
			if err := json.Unmarshal([]byte(cached), &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			s.cache.Set(ctx, cacheKey, data, accountCacheTTL)
		}
	}
	return account, nil
}

func (s *AccountService) invalidateCache(ctx context.Context, ids ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = accountCacheKey(id)
	}
	s.cache.Del(ctx, keys...)
}

func accountCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("account:%s", id)
}
