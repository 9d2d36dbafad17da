package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/eventbus"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/mail"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/repo"
)

type CartLine struct {
	EventID  uint `json:"eventId"`
	Quantity uint `json:"quantity"`
}

type OrderOutcome struct {
	OrderID     uint    `json:"orderId"`
	TotalAmount float64 `json:"totalAmount"`
	Notified    bool    `json:"notified"`
}

type OrderService struct {
	DB       *gorm.DB
	Events   *repo.EventRepo
	Orders   *repo.OrderRepo
	Users    *repo.UserRepo
	Notifier mail.Notifier
	Producer Publisher
}

// PlaceOrder runs the whole pipeline: resolve every cart line against the
// catalog, reserve inventory atomically, persist the order, then fire the
// trailing side effects. The order exists once the transaction commits;
// notification failure only flips the notified flag.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, lines []CartLine) (*OrderOutcome, error) {
	l := logging.FromContext(ctx).With("svc", "order.place", "user_id", userID)

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", apperr.ErrValidation)
	}
	for _, line := range lines {
		if line.EventID == 0 {
			return nil, fmt.Errorf("%w: eventId required", apperr.ErrValidation)
		}
		if line.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
		}
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, fmt.Errorf("%w: no email on file", apperr.ErrMissingContactInfo)
	}

	var (
		order     models.Order
		mailLines []mail.OrderLine
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]models.OrderItem, 0, len(lines))
		mailLines = mailLines[:0]

		for _, line := range lines {
			event, err := findEventTx(tx, line.EventID)
			if err != nil {
				return err
			}
			if line.Quantity > event.TicketsAvailable {
				return fmt.Errorf("%w: event %d has %d tickets left",
					apperr.ErrInsufficientInventory, event.ID, event.TicketsAvailable)
			}
			if err := s.Events.ReserveTickets(ctx, tx, event.ID, line.Quantity); err != nil {
				return err
			}

			subtotal := float64(line.Quantity) * event.Price
			total += subtotal
			items = append(items, models.OrderItem{
				EventID:   event.ID,
				Quantity:  line.Quantity,
				UnitPrice: event.Price,
			})
			mailLines = append(mailLines, mail.OrderLine{
				Title:     event.Title,
				Quantity:  line.Quantity,
				UnitPrice: event.Price,
			})
		}

		order = models.Order{
			UserID: userID,
			Total:  total,
			Items:  items,
		}
		return s.Orders.Create(ctx, tx, &order)
	})
	if txErr != nil {
		l.Warn("order_rejected", "error", txErr)
		return nil, txErr
	}

	s.publish(ctx, userID, map[string]any{
		"type":    "order_placed",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.Total,
	})

	notified := s.notify(ctx, user.Email, order, mailLines)

	l.Info("order_placed", "order_id", order.ID, "total", order.Total, "notified", notified)
	return &OrderOutcome{
		OrderID:     order.ID,
		TotalAmount: order.Total,
		Notified:    notified,
	}, nil
}

// ListOrders returns the caller's own order history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.Orders.ListByUser(ctx, userID, limit, offset)
}

func findEventTx(tx *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	if err := tx.First(&event, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: event %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &event, nil
}

func (s *OrderService) notify(ctx context.Context, email string, order models.Order, lines []mail.OrderLine) bool {
	if s.Notifier == nil {
		return false
	}
	summary := mail.OrderSummary{
		OrderID: order.ID,
		Lines:   lines,
		Total:   order.Total,
	}
	if err := s.Notifier.SendOrderConfirmation(ctx, email, summary); err != nil {
		logging.FromContext(ctx).Error("order_notification_failed", "order_id", order.ID, "error", err)
		return false
	}
	if err := s.Orders.MarkNotified(ctx, order.ID); err != nil {
		logging.FromContext(ctx).Error("order_mark_notified_failed", "order_id", order.ID, "error", err)
	}
	return true
}

func (s *OrderService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, eventbus.TopicOrderEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", eventbus.TopicOrderEvents, "error", err)
	}
}
