package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/models"
)

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) Create(ctx context.Context, db *gorm.DB, order *models.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) MarkNotified(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("notified", true).Error
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
