package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/models"
)

type EventRepo struct {
	DB *gorm.DB
}

func (r *EventRepo) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.DB.WithContext(ctx).Order("start_date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepo) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.DB.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: event %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepo) Create(ctx context.Context, event *models.Event) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

func (r *EventRepo) Update(ctx context.Context, event *models.Event) error {
	return r.DB.WithContext(ctx).Save(event).Error
}

func (r *EventRepo) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Event{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: event %d", apperr.ErrNotFound, id)
	}
	return nil
}

// ReserveTickets decrements inventory with a guarded UPDATE so concurrent
// orders cannot drive tickets_available below zero. Callers pass their
// transaction handle as db.
func (r *EventRepo) ReserveTickets(ctx context.Context, db *gorm.DB, eventID uint, qty uint) error {
	res := db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND tickets_available >= ?", eventID, qty).
		Update("tickets_available", gorm.Expr("tickets_available - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: event %d", apperr.ErrNotFound, eventID)
		}
		return fmt.Errorf("%w: event %d", apperr.ErrInsufficientInventory, eventID)
	}
	return nil
}
