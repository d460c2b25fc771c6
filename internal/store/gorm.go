package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pardeep1916P/storeit-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const scanBatchSize = 500

// Item is one row of the metadata table. Attrs holds the JSON encoded
// record, Status mirrors the upload session status so it can be swapped
// with a single conditional update.
type Item struct {
	OwnerID    string              `gorm:"primaryKey;size:191"`
	RecordID   string              `gorm:"primaryKey;size:191"`
	RecordType model.RecordType    `gorm:"index;size:32;not null"`
	Status     model.SessionStatus `gorm:"size:16"`
	Attrs      []byte              `gorm:"not null"`
	UpdatedAt  time.Time
}

func (Item) TableName() string { return "records" }

// Gorm is the Store backed by a SQL database through gorm
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("failed to automigrate records table, %w", err)
	}

	return &Gorm{db: db}, nil
}

func toItem(rec model.Record) (*Item, error) {
	data, err := encode(rec)
	if err != nil {
		return nil, err
	}

	k := rec.Key()
	it := &Item{
		OwnerID:    k.OwnerID,
		RecordID:   k.RecordID,
		RecordType: rec.Type(),
		Attrs:      data,
	}

	if s, ok := rec.(*model.UploadSession); ok {
		it.Status = s.Status
	}

	return it, nil
}

func fromItem(it *Item) (model.Record, error) {
	rec, err := decode(it.RecordType, it.Attrs)
	if err != nil {
		return nil, err
	}

	if s, ok := rec.(*model.UploadSession); ok && it.Status != "" {
		s.Status = it.Status
	}

	return rec, nil
}

func byKey(tx *gorm.DB, key model.Key) *gorm.DB {
	return tx.Where("owner_id = ? AND record_id = ?", key.OwnerID, key.RecordID)
}

func (g *Gorm) Get(ctx context.Context, key model.Key) (model.Record, error) {
	var it Item

	err := byKey(g.db.WithContext(ctx), key).First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get record: %w", err)
	}

	return fromItem(&it)
}

func (g *Gorm) Put(ctx context.Context, rec model.Record) error {
	it, err := toItem(rec)
	if err != nil {
		return err
	}

	err = g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "record_id"}},
			UpdateAll: true,
		}).
		Create(it).
		Error
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}

	return nil
}

func (g *Gorm) Delete(ctx context.Context, key model.Key) error {
	if err := byKey(g.db.WithContext(ctx), key).Delete(&Item{}).Error; err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

func (g *Gorm) QueryByOwner(ctx context.Context, ownerID string) ([]model.Record, error) {
	var items []Item

	err := g.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("record_id").
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	out := make([]model.Record, 0, len(items))
	for i := range items {
		rec, err := fromItem(&items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

// ScanAll pages through the table in primary key order. The key has two
// columns so paging is done by hand rather than with FindInBatches.
func (g *Gorm) ScanAll(ctx context.Context, match func(model.Record) bool) ([]model.Record, error) {
	var (
		out                   []model.Record
		lastOwner, lastRecord string
		first                 = true
	)

	for {
		var batch []Item

		q := g.db.WithContext(ctx).Order("owner_id, record_id").Limit(scanBatchSize)
		if !first {
			q = q.Where("owner_id > ? OR (owner_id = ? AND record_id > ?)", lastOwner, lastOwner, lastRecord)
		}

		if err := q.Find(&batch).Error; err != nil {
			return nil, fmt.Errorf("scan records: %w", err)
		}

		for i := range batch {
			rec, err := fromItem(&batch[i])
			if err != nil {
				return nil, err
			}

			if match == nil || match(rec) {
				out = append(out, rec)
			}
		}

		if len(batch) < scanBatchSize {
			return out, nil
		}

		last := batch[len(batch)-1]
		lastOwner, lastRecord, first = last.OwnerID, last.RecordID, false
	}
}

func (g *Gorm) Update(ctx context.Context, key model.Key, delta Delta) (model.Record, error) {
	var updated model.Record

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it Item

		err := byKey(tx.Clauses(clause.Locking{Strength: "UPDATE"}), key).First(&it).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		data, rec, err := applyDelta(key, it.RecordType, it.Attrs, delta)
		if err != nil {
			return err
		}

		fields := map[string]any{"attrs": data}
		if s, ok := rec.(*model.UploadSession); ok {
			fields["status"] = s.Status
		}

		if err := byKey(tx.Model(&Item{}), key).Updates(fields).Error; err != nil {
			return err
		}

		updated = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidDelta) {
			return nil, err
		}

		return nil, fmt.Errorf("update record: %w", err)
	}

	return updated, nil
}

func (g *Gorm) SwapStatus(ctx context.Context, key model.Key, from, to model.SessionStatus) (bool, error) {
	var swapped bool

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := byKey(tx.Model(&Item{}), key).
			Where("record_type = ? AND status = ?", model.TypeUploadSession, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var it Item
			err := byKey(tx.Select("record_type"), key).First(&it).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}

			if it.RecordType != model.TypeUploadSession {
				return fmt.Errorf("swap status on %s: %w", it.RecordType, ErrTypeMismatch)
			}

			return nil
		}

		var it Item
		if err := byKey(tx, key).First(&it).Error; err != nil {
			return err
		}

		data, _, err := applyDelta(key, it.RecordType, it.Attrs, Delta{"status": to})
		if err != nil {
			return err
		}

		if err := byKey(tx.Model(&Item{}), key).Update("attrs", data).Error; err != nil {
			return err
		}

		swapped = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTypeMismatch) {
			return false, err
		}

		return false, fmt.Errorf("swap session status: %w", err)
	}

	return swapped, nil
}
