package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestGate_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("wins a free lock", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, 5*time.Second).SetVal(true)

		assert.True(t, gate.Acquire(ctx, "scheduler:recurring", 5*time.Second))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses a held lock", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		// another holder's entry is still live, SET NX is a no-op
		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, 5*time.Second).SetVal(false)

		assert.False(t, gate.Acquire(ctx, "scheduler:recurring", 5*time.Second))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("at most one of two racing acquires wins", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, 5*time.Second).SetVal(true)
		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, 5*time.Second).SetVal(false)

		first := gate.Acquire(ctx, "scheduler:recurring", 5*time.Second)
		second := gate.Acquire(ctx, "scheduler:recurring", 5*time.Second)
		assert.True(t, first)
		assert.False(t, second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired lock becomes available", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, time.Second).SetVal(false)
		// after the TTL elapses the key is gone and the next SET NX wins
		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, time.Second).SetVal(true)

		assert.False(t, gate.Acquire(ctx, "scheduler:recurring", time.Second))
		assert.True(t, gate.Acquire(ctx, "scheduler:recurring", time.Second))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails closed when the store errors", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.Regexp().ExpectSetNX("scheduler:recurring", `.+`, 5*time.Second).
			SetErr(errors.New("connection refused"))

		assert.False(t, gate.Acquire(ctx, "scheduler:recurring", 5*time.Second))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails closed without a client", func(t *testing.T) {
		gate := NewGate(nil)
		assert.False(t, gate.Acquire(ctx, "scheduler:recurring", 5*time.Second))
	})
}

func TestGate_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the lock entry", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.ExpectDel("scheduler:recurring").SetVal(1)

		gate.Release(ctx, "scheduler:recurring")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("swallows store errors", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		gate := NewGate(client)

		mock.ExpectDel("scheduler:recurring").SetErr(errors.New("connection refused"))

		gate.Release(ctx, "scheduler:recurring")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op without a client", func(t *testing.T) {
		NewGate(nil).Release(ctx, "scheduler:recurring")
	})
}
