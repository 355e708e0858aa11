// file: service/account_service_test.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// mockAccountRepo is a mock implementation of IAccountRepository.
type mockAccountRepo struct{ mock.Mock }

func (m *mockAccountRepo) Create(account *model.Account) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *mockAccountRepo) Save(account *model.Account) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *mockAccountRepo) Get(id uuid.UUID) (*model.Account, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) GetForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Account, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) SaveTx(tx *sql.Tx, account *model.Account) error {
	args := m.Called(tx, account)
	return args.Error(0)
}

// serviceFixture wires an account service over the in-memory repository
// and a sqlmock database so transaction begin/commit can be asserted.
func serviceFixture(t *testing.T) (*AccountService, *repository.InmemAccountRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewInmemAccountRepository()
	return NewAccountService(db, repo, nil), repo, dbMock
}

// mockFixture pairs a mocked repository with a sqlmock database, for
// tests that assert which repository methods a pipeline touches.
func mockFixture(t *testing.T) (*AccountService, *mockAccountRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockRepo := new(mockAccountRepo)
	return NewAccountService(db, mockRepo, nil), mockRepo, dbMock
}

func fundAccount(t *testing.T, s *AccountService, dbMock sqlmock.Sqlmock, currency model.Currency, amount int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	_, err := s.CreateAccount(ctx, id, currency)
	assert.NoError(t, err)
	if amount > 0 {
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()
		_, err = s.DepositAccount(ctx, id, model.NewMoney(amount, currency))
		assert.NoError(t, err)
	}
	return id
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(mockAccountRepo)
		accountService := NewAccountService(nil, mockRepo, nil)

		accountID := uuid.New()
		mockRepo.On("Create", mock.MatchedBy(func(acc *model.Account) bool {
			return acc.ID == accountID && acc.Currency == model.PLN && acc.Balance.Amount == 0
		})).Return(nil).Once()

		createdID, err := accountService.CreateAccount(ctx, accountID, model.PLN)

		assert.NoError(t, err)
		assert.Equal(t, accountID, createdID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("id already taken", func(t *testing.T) {
		mockRepo := new(mockAccountRepo)
		accountService := NewAccountService(nil, mockRepo, nil)

		accountID := uuid.New()
		mockRepo.On("Create", mock.Anything).Return(repository.ErrAccountExists).Once()

		_, err := accountService.CreateAccount(ctx, accountID, model.PLN)

		assert.ErrorIs(t, err, ErrCannotCreateAccount)
	})

	t.Run("second create leaves first account untouched", func(t *testing.T) {
		accountService, repo, dbMock := serviceFixture(t)

		accountID := uuid.New()
		_, err := accountService.CreateAccount(ctx, accountID, model.EUR)
		assert.NoError(t, err)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()
		_, err = accountService.DepositAccount(ctx, accountID, model.NewMoney(500, model.EUR))
		assert.NoError(t, err)

		_, err = accountService.CreateAccount(ctx, accountID, model.EUR)
		assert.ErrorIs(t, err, ErrCannotCreateAccount)

		account, err := repo.Get(accountID)
		assert.NoError(t, err)
		assert.Equal(t, int64(500), account.Balance.Amount)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(mockAccountRepo)
		accountService := NewAccountService(nil, mockRepo, nil)

		expectedErr := errors.New("db error")
		mockRepo.On("Create", mock.Anything).Return(expectedErr).Once()

		_, err := accountService.CreateAccount(ctx, uuid.New(), model.PLN)

		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestAccountService_DepositAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns new balance", func(t *testing.T) {
		accountService, _, dbMock := serviceFixture(t)

		accountID := uuid.New()
		_, err := accountService.CreateAccount(ctx, accountID, model.PLN)
		assert.NoError(t, err)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		balance, err := accountService.DepositAccount(ctx, accountID, model.NewMoney(1000, model.PLN))

		assert.NoError(t, err)
		assert.Equal(t, model.NewMoney(1000, model.PLN), balance)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("reads and writes inside one transaction with the row locked", func(t *testing.T) {
		accountService, mockRepo, dbMock := mockFixture(t)

		accountID := uuid.New()
		mockRepo.On("GetForUpdate", mock.Anything, accountID).
			Return(model.NewAccount(accountID, model.PLN), nil).Once()
		mockRepo.On("SaveTx", mock.Anything, mock.Anything).Return(nil).Once()

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		_, err := accountService.DepositAccount(ctx, accountID, model.NewMoney(1000, model.PLN))

		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		mockRepo.AssertExpectations(t)
		// The unlocked standalone paths must stay out of the pipeline.
		mockRepo.AssertNotCalled(t, "Get")
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("unknown account rolls back without a write", func(t *testing.T) {
		accountService, mockRepo, dbMock := mockFixture(t)

		accountID := uuid.New()
		mockRepo.On("GetForUpdate", mock.Anything, accountID).
			Return(nil, repository.ErrAccountNotFound).Once()

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		_, err := accountService.DepositAccount(ctx, accountID, model.NewMoney(1000, model.PLN))

		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		mockRepo.AssertNotCalled(t, "SaveTx")
	})

	t.Run("currency mismatch rolls back without a write", func(t *testing.T) {
		accountService, mockRepo, dbMock := mockFixture(t)

		accountID := uuid.New()
		mockRepo.On("GetForUpdate", mock.Anything, accountID).
			Return(model.NewAccount(accountID, model.EUR), nil).Once()

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		_, err := accountService.DepositAccount(ctx, accountID, model.NewMoney(1000, model.PLN))

		assert.ErrorIs(t, err, model.ErrInvalidCurrency)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		mockRepo.AssertNotCalled(t, "SaveTx")
	})
}

// fakeCache is an in-process ICacheClient used to observe cache traffic.
type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	if value, ok := c.entries[key]; ok {
		return redis.NewStringResult(value, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.entries[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestAccountService_GetAccount(t *testing.T) {
	ctx := context.Background()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewInmemAccountRepository()
	cache := newFakeCache()
	accountService := NewAccountService(db, repo, cache)

	accountID := uuid.New()
	_, err = accountService.CreateAccount(ctx, accountID, model.EUR)
	assert.NoError(t, err)

	t.Run("read populates the cache", func(t *testing.T) {
		account, err := accountService.GetAccount(ctx, accountID)

		assert.NoError(t, err)
		assert.Equal(t, accountID, account.ID)
		assert.Contains(t, cache.entries, "account:"+accountID.String())
	})

	t.Run("deposit invalidates the cache", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		_, err := accountService.DepositAccount(ctx, accountID, model.NewMoney(100, model.EUR))
		assert.NoError(t, err)

		assert.NotContains(t, cache.entries, "account:"+accountID.String())

		account, err := accountService.GetAccount(ctx, accountID)
		assert.NoError(t, err)
		assert.Equal(t, int64(100), account.Balance.Amount)
	})

	t.Run("unknown account is not cached", func(t *testing.T) {
		_, err := accountService.GetAccount(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	})
}

func TestAccountService_MoneyTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("success moves principal plus commission", func(t *testing.T) {
		accountService, repo, dbMock := serviceFixture(t)

		sourceID := fundAccount(t, accountService, dbMock, model.EUR, 1000)
		destinationID := fundAccount(t, accountService, dbMock, model.EUR, 1000)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		err := accountService.MoneyTransfer(ctx, sourceID, destinationID, model.NewMoney(300, model.EUR))

		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())

		source, _ := repo.Get(sourceID)
		destination, _ := repo.Get(destinationID)
		assert.Equal(t, int64(698), source.Balance.Amount)
		assert.Equal(t, int64(1302), destination.Balance.Amount)

		// Funding credit plus exactly one debit / one credit.
		assert.Len(t, source.Logs, 2)
		assert.Equal(t, model.TransactionDebit, source.Logs[1].TransactionType)
		assert.Len(t, destination.Logs, 2)
		assert.Equal(t, model.TransactionCredit, destination.Logs[1].TransactionType)
	})

	t.Run("insufficient balance leaves both accounts unchanged", func(t *testing.T) {
		accountService, repo, dbMock := serviceFixture(t)

		sourceID := fundAccount(t, accountService, dbMock, model.EUR, 1000)
		destinationID := fundAccount(t, accountService, dbMock, model.EUR, 1000)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		err := accountService.MoneyTransfer(ctx, sourceID, destinationID, model.NewMoney(1000, model.EUR))

		assert.ErrorIs(t, err, model.ErrInsufficientBalance)
		assert.NoError(t, dbMock.ExpectationsWereMet())

		source, _ := repo.Get(sourceID)
		destination, _ := repo.Get(destinationID)
		assert.Equal(t, int64(1000), source.Balance.Amount)
		assert.Equal(t, int64(1000), destination.Balance.Amount)
		assert.Len(t, source.Logs, 1)
		assert.Len(t, destination.Logs, 1)
	})

	t.Run("different currencies rejected", func(t *testing.T) {
		accountService, _, dbMock := serviceFixture(t)

		sourceID := fundAccount(t, accountService, dbMock, model.EUR, 1000)
		destinationID := fundAccount(t, accountService, dbMock, model.PLN, 1000)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		err := accountService.MoneyTransfer(ctx, sourceID, destinationID, model.NewMoney(300, model.EUR))

		assert.ErrorIs(t, err, model.ErrInvalidCurrency)
	})

	t.Run("same account rejected before any transaction", func(t *testing.T) {
		accountService, _, dbMock := serviceFixture(t)

		accountID := fundAccount(t, accountService, dbMock, model.EUR, 1000)

		err := accountService.MoneyTransfer(ctx, accountID, accountID, model.NewMoney(100, model.EUR))

		assert.ErrorIs(t, err, ErrSameAccountTransfer)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown source surfaces not found", func(t *testing.T) {
		accountService, _, dbMock := serviceFixture(t)

		destinationID := fundAccount(t, accountService, dbMock, model.EUR, 1000)

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		err := accountService.MoneyTransfer(ctx, uuid.New(), destinationID, model.NewMoney(100, model.EUR))

		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	})

	t.Run("fourth same-day transfer hits the daily limit", func(t *testing.T) {
		accountService, repo, dbMock := serviceFixture(t)

		sourceID := fundAccount(t, accountService, dbMock, model.EUR, 10000)
		destinationID := fundAccount(t, accountService, dbMock, model.EUR, 0)

		for i := 0; i < 3; i++ {
			dbMock.ExpectBegin()
			dbMock.ExpectCommit()
			err := accountService.MoneyTransfer(ctx, sourceID, destinationID, model.NewMoney(100, model.EUR))
			assert.NoError(t, err)
		}

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()
		err := accountService.MoneyTransfer(ctx, sourceID, destinationID, model.NewMoney(100, model.EUR))

		assert.ErrorIs(t, err, model.ErrDailyTransactionLimitAchieved)
		assert.NoError(t, dbMock.ExpectationsWereMet())

		source, _ := repo.Get(sourceID)
		assert.Equal(t, int64(10000-3*101), source.Balance.Amount)
	})
}
