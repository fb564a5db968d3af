package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestGetOrLoad_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db)
	mock.ExpectGet("listing:1").SetVal("cached")

	b, err := c.GetOrLoad(context.Background(), "listing:1", time.Minute, func(context.Context) ([]byte, error) {
		t.Fatal("loader must not run on hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", string(b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrLoad_MissStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db)
	mock.ExpectGet("listing:1").RedisNil()
	mock.ExpectSet("listing:1", []byte("fresh"), time.Minute).SetVal("OK")

	b, err := c.GetOrLoad(context.Background(), "listing:1", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrLoad_LoaderError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db)
	mock.ExpectGet("listing:404").RedisNil()
	boom := errors.New("not there")

	_, err := c.GetOrLoad(context.Background(), "listing:404", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTyped_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tc := NewTyped[item](NewWithClient(db), "listing", time.Minute)
	mock.ExpectGet("listing:7").SetVal(`{"id":"7","name":"Seaside"}`)

	got, err := tc.Get(context.Background(), "7", func(context.Context) (*item, error) {
		return nil, errors.New("unused")
	})
	require.NoError(t, err)
	assert.Equal(t, &item{ID: "7", Name: "Seaside"}, got)
}

func TestTyped_NilValueNotCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tc := NewTyped[item](NewWithClient(db), "listing", time.Minute)
	mock.ExpectGet("listing:9").RedisNil()

	got, err := tc.Get(context.Background(), "9", func(context.Context) (*item, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTyped_CorruptEntryReloads(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tc := NewTyped[item](NewWithClient(db), "listing", time.Minute)
	mock.ExpectGet("listing:3").SetVal("{not json")
	mock.ExpectDel("listing:3").SetVal(1)

	got, err := tc.Get(context.Background(), "3", func(context.Context) (*item, error) {
		return &item{ID: "3", Name: "Fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Fresh", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilCache(t *testing.T) {
	var c *Cache
	tc := NewTyped[item](c, "listing", time.Minute)
	calls := 0
	got, err := tc.Get(context.Background(), "1", func(context.Context) (*item, error) {
		calls++
		return &item{ID: "1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, 1, calls)
	assert.NoError(t, tc.Invalidate(context.Background(), "1"))
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
	assert.NoError(t, c.Ping(context.Background()))
	assert.Nil(t, New("", "", 0))
}

func TestTypedInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tc := NewTyped[item](NewWithClient(db), "listing", time.Minute)
	mock.ExpectDel("listing:1", "listing:2").SetVal(2)
	require.NoError(t, tc.Invalidate(context.Background(), "1", "2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db)
	mock.ExpectDel("listing:1", "listing:2").SetVal(2)
	require.NoError(t, c.Invalidate(context.Background(), "listing:1", "listing:2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
