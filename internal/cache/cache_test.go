package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("hit decodes into dest", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectGet("wallets:list:user-1").SetVal(`{"name":"main","count":3}`)

		var got payload
		assert.True(t, c.Get(ctx, "wallets:list:user-1", &got))
		assert.Equal(t, payload{Name: "main", Count: 3}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss returns false", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectGet("wallets:list:user-1").RedisNil()

		var got payload
		assert.False(t, c.Get(ctx, "wallets:list:user-1", &got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt entry returns false", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectGet("wallets:list:user-1").SetVal(`{not json`)

		var got payload
		assert.False(t, c.Get(ctx, "wallets:list:user-1", &got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		c := New(nil)
		var got payload
		assert.False(t, c.Get(ctx, "anything", &got))
	})
}

func TestCache_SetAndDel(t *testing.T) {
	ctx := context.Background()

	t.Run("set stores the JSON encoding with ttl", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectSet("wallets:list:user-1", []byte(`{"name":"main","count":3}`), time.Minute).SetVal("OK")

		c.Set(ctx, "wallets:list:user-1", payload{Name: "main", Count: 3}, time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("del invalidates", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectDel("wallets:list:user-1").SetVal(1)

		c.Del(ctx, "wallets:list:user-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store errors are swallowed", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		c := New(client)

		mock.ExpectSet("k", []byte(`{"name":"","count":0}`), time.Minute).SetErr(assert.AnError)
		mock.ExpectDel("k").SetErr(assert.AnError)

		c.Set(ctx, "k", payload{}, time.Minute)
		c.Del(ctx, "k")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		c := New(nil)
		c.Set(ctx, "k", payload{}, time.Minute)
		c.Del(ctx, "k")
	})
}
