package scheduler

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/backend/internal/lock"
	"github.com/fintrack/backend/internal/repository"
	"github.com/fintrack/backend/internal/services"
)

func newDriver(t *testing.T) (*Driver, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	redisClient, redisMock := redismock.NewClientMock()
	gate := lock.NewGate(redisClient)

	recurring := services.NewRecurringService(db,
		repository.NewRecurringRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewWalletRepository(db),
		repository.NewCategoryRepository(db))

	return NewDriver(gate, recurring, repository.NewTokenRepository(db)), dbMock, redisMock
}

func TestRunDueRecurringTransactions(t *testing.T) {
	t.Run("lock holder runs the batch and releases", func(t *testing.T) {
		driver, dbMock, redisMock := newDriver(t)

		redisMock.Regexp().ExpectSetNX(recurringLockName, `.+`, recurringLockTTL).SetVal(true)
		dbMock.ExpectQuery("SELECT .* FROM recurring_transactions WHERE is_active = TRUE AND next_run <= \\$1").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "type", "description", "interval", "next_run", "last_run", "is_active", "wallet_id", "category_id", "created_at"}))
		redisMock.ExpectDel(recurringLockName).SetVal(1)

		driver.RunDueRecurringTransactions()

		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("losing the lock skips the batch entirely", func(t *testing.T) {
		driver, dbMock, redisMock := newDriver(t)

		redisMock.Regexp().ExpectSetNX(recurringLockName, `.+`, recurringLockTTL).SetVal(false)

		driver.RunDueRecurringTransactions()

		// No database activity happened: the due query was never issued.
		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("lock store failure skips the batch", func(t *testing.T) {
		driver, dbMock, redisMock := newDriver(t)

		redisMock.Regexp().ExpectSetNX(recurringLockName, `.+`, recurringLockTTL).SetErr(assert.AnError)

		driver.RunDueRecurringTransactions()

		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestRunTokenCleanup(t *testing.T) {
	t.Run("lock holder purges and releases", func(t *testing.T) {
		driver, dbMock, redisMock := newDriver(t)

		redisMock.Regexp().ExpectSetNX(cleanupLockName, `.+`, cleanupLockTTL).SetVal(true)
		dbMock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at < \\$1 OR revoked = TRUE").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))
		redisMock.ExpectDel(cleanupLockName).SetVal(1)

		driver.RunTokenCleanup()

		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("losing the lock skips cleanup", func(t *testing.T) {
		driver, dbMock, redisMock := newDriver(t)

		redisMock.Regexp().ExpectSetNX(cleanupLockName, `.+`, cleanupLockTTL).SetVal(false)

		driver.RunTokenCleanup()

		assert.NoError(t, dbMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
