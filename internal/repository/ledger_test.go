package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLedgerRepository_CreateWithBalanceUpdate(t *testing.T) {
	occurredAt := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("expense debits the wallet in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		repo := NewLedgerRepository(db)
		amount := decimal.RequireFromString("100.00")

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), amount, "EXPENSE", "Rent", occurredAt, "wallet-1", "cat-1").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectExec("UPDATE wallets SET balance = balance \\+ \\$1 WHERE id = \\$2").
			WithArgs(amount.Neg(), "wallet-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		created, err := repo.CreateWithBalanceUpdate("wallet-1", "cat-1", amount, "EXPENSE", occurredAt, "Rent")
		assert.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.Amount.Equal(amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("income credits the wallet", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		repo := NewLedgerRepository(db)
		amount := decimal.RequireFromString("2500.50")

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), amount, "INCOME", "Salary", occurredAt, "wallet-1", "cat-2").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectExec("UPDATE wallets SET balance = balance \\+ \\$1 WHERE id = \\$2").
			WithArgs(amount, "wallet-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err = repo.CreateWithBalanceUpdate("wallet-1", "cat-2", amount, "INCOME", occurredAt, "Salary")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing wallet rolls back the insert", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		repo := NewLedgerRepository(db)
		amount := decimal.RequireFromString("10.00")

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectExec("UPDATE wallets SET balance = balance \\+ \\$1 WHERE id = \\$2").
			WithArgs(amount.Neg(), "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err = repo.CreateWithBalanceUpdate("ghost", "cat-1", amount, "EXPENSE", occurredAt, "")
		assert.ErrorContains(t, err, "wallet ghost not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
