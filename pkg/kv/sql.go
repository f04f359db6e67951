package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/staffdesk/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// slotRow maps the kv_slots table created by the embedded migrations.
type slotRow struct {
	Key       string    `gorm:"column:slot_key;primaryKey"`
	Value     string    `gorm:"column:slot_value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (slotRow) TableName() string { return "kv_slots" }

// SQL stores slots as rows in a sqlite or postgres database.
type SQL struct {
	client *db.Client
	now    func() time.Time
}

// NewSQL wraps a migrated database client.
func NewSQL(client *db.Client) (*SQL, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &SQL{client: client, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var row slotRow
	err := s.client.DB().WithContext(ctx).Where("slot_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %s: %w", key, err)
	}
	return []byte(row.Value), nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	row := slotRow{Key: key, Value: string(value), UpdatedAt: s.now().UTC()}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"slot_value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("writing slot %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.client.DB().WithContext(ctx).Where("slot_key = ?", key).Delete(&slotRow{}).Error; err != nil {
		return fmt.Errorf("deleting slot %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.client.Close()
}
