package repository

import (
	"context"
	"supply_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SequenceOrders     = "orders"
	SequenceDeliveries = "deliveries"
)

// SequenceRepository hands out monotonic counter values. Inside a transaction the
// counter row stays locked until commit, so concurrent callers never share a value.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	db := r.db.WithContext(ctx)

	bumped, err := r.bump(db, name)
	if err != nil {
		return 0, err
	}
	if !bumped {
		err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Sequence{Name: name}).Error
		if err != nil {
			return 0, err
		}
		if _, err = r.bump(db, name); err != nil {
			return 0, err
		}
	}

	var seq models.Sequence
	if err := db.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (r *sequenceRepository) bump(db *gorm.DB, name string) (bool, error) {
	result := db.Model(&models.Sequence{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	return result.RowsAffected == 1, result.Error
}
