package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/linarqa/linarqa-web/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of storage_entries.
type Entry struct {
	EntryKey  string     `gorm:"column:entry_key;primaryKey"`
	Value     string     `gorm:"column:value"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "storage_entries" }

// SQL stores entries in the storage_entries table through gorm.
type SQL struct {
	keys
	client *db.Client
	now    func() time.Time
}

func NewSQL(client *db.Client) *SQL {
	return &SQL{client: client, now: time.Now}
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := s.client.DB().WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	if entry.ExpiresAt != nil && !s.now().Before(*entry.ExpiresAt) {
		if err := s.Del(ctx, key); err != nil {
			return "", err
		}
		return "", ErrNotFound
	}
	return entry.Value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	now := s.now().UTC()
	entry := Entry{
		EntryKey:  key,
		Value:     fmt.Sprint(value),
		ExpiresAt: expiry(now, ttl),
		UpdatedAt: now,
	}
	if err := upsert(s.client.DB().WithContext(ctx), &entry); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// IncrWithTTL counts inside a fixed window. The row is locked for the
// duration of the transaction on postgres.
func (s *SQL) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := s.now().UTC()
	var count int64
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var entry Entry
		err := s.client.ForUpdate(tx).Where("entry_key = ?", key).Take(&entry).Error
		fresh := errors.Is(err, gorm.ErrRecordNotFound) ||
			(err == nil && entry.ExpiresAt != nil && !now.Before(*entry.ExpiresAt))
		switch {
		case fresh:
			entry = Entry{EntryKey: key, ExpiresAt: expiry(now, ttl)}
		case err != nil:
			return err
		default:
			n, perr := strconv.ParseInt(entry.Value, 10, 64)
			if perr != nil {
				return fmt.Errorf("counter holds %q", entry.Value)
			}
			count = n
		}
		count++
		entry.Value = strconv.FormatInt(count, 10)
		entry.UpdatedAt = now
		return upsert(tx, &entry)
	})
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", key, err)
	}
	return count, nil
}

func upsert(tx *gorm.DB, entry *Entry) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(entry).Error
}

func (s *SQL) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.DB().WithContext(ctx).Where("entry_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete %d keys: %w", len(keys), err)
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// PurgeExpired removes every expired row and reports how many went.
func (s *SQL) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.client.DB().WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
