package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/logger"
)

type marker struct {
	ID   int
	Name string
}

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&marker{}))
	return conn
}

func count(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&marker{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	conn := newSQLite(t)
	client := Wrap(conn, DriverSQLite)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&marker{Name: "kept"}).Error
	}))
	assert.Equal(t, int64(1), count(t, conn))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&marker{Name: "dropped"}).Error)
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int64(1), count(t, conn))

	assert.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&marker{Name: "panicked"}).Error)
			panic("boom")
		})
	})
	assert.Equal(t, int64(1), count(t, conn))
}

func TestForUpdateOnlyLocksOnPostgres(t *testing.T) {
	conn := newSQLite(t)
	dry := func(c *Client) *gorm.Statement {
		return c.ForUpdate(conn.Session(&gorm.Session{DryRun: true})).Take(&marker{}).Statement
	}

	_, locked := dry(Wrap(conn, DriverSQLite)).Clauses["FOR"]
	assert.False(t, locked)

	_, locked = dry(Wrap(conn, DriverPostgres)).Clauses["FOR"]
	assert.True(t, locked)
}

func TestNewSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{DSN: "file::memory:", MaxOpenConns: 1}, true, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DriverSQLite, client.Driver())
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, config.DBConfig{}, false, nil)
	assert.Error(t, err)

	_, err = New(ctx, config.DBConfig{DSN: "x", Driver: "oracle"}, false, nil)
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}
