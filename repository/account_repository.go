package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAccountNotFound is returned when no account is stored under an id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned by Create when the id is already taken.
	ErrAccountExists = errors.New("account already exists")
)

// IAccountRepository defines the contract for account persistence.
//
// Create inserts a brand-new aggregate and fails on a taken id, so
// callers never need a check-then-insert sequence. Save and Get operate
// standalone; GetForUpdate and SaveTx run inside a caller-owned
// transaction so a transfer can lock and persist both accounts
// atomically.
type IAccountRepository interface {
	Create(account *model.Account) error
	Save(account *model.Account) error
	Get(id uuid.UUID) (*model.Account, error)
	GetForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Account, error)
	SaveTx(tx *sql.Tx, account *model.Account) error
}

// AccountRepository implements IAccountRepository on Postgres.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// Save upserts the account row and inserts any log entries that have not
// been stored yet, in a single transaction of its own.
func (r *AccountRepository) Save(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"balance":    account.Balance.Amount,
	})
	log.Info("Executing queries to save account")

	tx, err := r.DB.Begin()
	if err != nil {
		log.WithError(err).Error("Failed to begin save transaction")
		return fmt.Errorf("could not begin save transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.SaveTx(tx, account); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit save transaction")
		return fmt.Errorf("could not commit save transaction: %w", err)
	}
	return nil
}

// SaveTx writes the account's state inside an existing transaction.
func (r *AccountRepository) SaveTx(tx *sql.Tx, account *model.Account) error {
	log := logger.Log.WithField("account_id", account.ID)

	query := `INSERT INTO accounts (id, currency, balance) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance`
	if _, err := tx.Exec(query, account.ID, account.Currency, account.Balance.Amount); err != nil {
		log.WithError(err).Error("Failed to upsert account row")
		return err
	}

	logQuery := `INSERT INTO account_logs (account_id, transaction_type, created_at) VALUES ($1, $2, $3) RETURNING id`
	for i := range account.Logs {
		if account.Logs[i].ID != 0 {
			continue
		}
		entry := &account.Logs[i]
		err := tx.QueryRow(logQuery, entry.AccountID, entry.TransactionType, entry.CreatedAt).Scan(&entry.ID)
		if err != nil {
			log.WithError(err).Error("Failed to insert account log entry")
			return err
		}
	}
	return nil
}

// Get loads an account with the log entries of the current UTC day.
// Older entries never influence the daily-limit check, so reading them
// back would only make the aggregate grow without bound.
func (r *AccountRepository) Get(id uuid.UUID) (*model.Account, error) {
	return r.get(r.DB.QueryRow, r.DB.Query, id, "")
}

// GetForUpdate loads an account inside tx with its row locked, so two
// concurrent transfers cannot race on the balance or the log count.
func (r *AccountRepository) GetForUpdate(tx *sql.Tx, id uuid.UUID) (*model.Account, error) {
	return r.get(tx.QueryRow, tx.Query, id, " FOR UPDATE")
}

type queryRowFunc func(query string, args ...interface{}) *sql.Row
type queryFunc func(query string, args ...interface{}) (*sql.Rows, error)

func (r *AccountRepository) get(queryRow queryRowFunc, query queryFunc, id uuid.UUID, lock string) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)
	log.Info("Executing query to get account")

	account := &model.Account{}
	var currency string
	var amount int64

	accountQuery := `SELECT id, currency, balance, created_at FROM accounts WHERE id = $1` + lock
	err := queryRow(accountQuery, id).Scan(&account.ID, &currency, &amount, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to execute get account query")
		return nil, err
	}
	account.Currency = model.Currency(currency)
	account.Balance = model.NewMoney(amount, account.Currency)

	// The day boundary must be a timestamptz, not a bare timestamp.
	// Without the outer AT TIME ZONE the session TimeZone re-interprets
	// the cutoff and a non-UTC session shifts the window, so debits made
	// just after UTC midnight would escape the daily-limit count.
	logsQuery := `SELECT id, account_id, transaction_type, created_at FROM account_logs
		WHERE account_id = $1 AND created_at >= (date_trunc('day', now() AT TIME ZONE 'UTC') AT TIME ZONE 'UTC')
		ORDER BY id`
	rows, err := query(logsQuery, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute get account logs query")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.AccountLog
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.TransactionType, &entry.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan account log row")
			return nil, err
		}
		account.Logs = append(account.Logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return account, nil
}

// Create inserts a new account row. The primary key constraint decides
// whether the id is free; a unique violation maps to ErrAccountExists.
// Accounts start empty, so log rows only ever appear through Save and
// SaveTx.
func (r *AccountRepository) Create(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"currency":   account.Currency,
	})
	log.Info("Executing query to create account")

	query := `INSERT INTO accounts (id, currency, balance) VALUES ($1, $2, $3)`
	if _, err := r.DB.Exec(query, account.ID, account.Currency, account.Balance.Amount); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrAccountExists
		}
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}
