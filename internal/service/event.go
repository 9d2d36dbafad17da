package service

import (
	"context"
	"fmt"
	"time"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/repo"
)

// Indexer is the slice of the search projection the catalog needs. Index
// failures are logged and swallowed: search lags, the catalog never does.
type Indexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, eventID uint) error
}

type EventService struct {
	Events *repo.EventRepo
	Index  Indexer
}

type EventInput struct {
	Title            string     `json:"title"`
	Category         string     `json:"category"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate"`
	Location         string     `json:"location"`
	ImageURL         string     `json:"imageUrl"`
	Price            float64    `json:"price"`
	TicketsAvailable uint       `json:"ticketsAvailable"`
	Organizer        string     `json:"organizer"`
	Description      string     `json:"description"`
}

func (in *EventInput) validate() error {
	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", apperr.ErrValidation)
	case in.Category == "":
		return fmt.Errorf("%w: category is required", apperr.ErrValidation)
	case in.Location == "":
		return fmt.Errorf("%w: location is required", apperr.ErrValidation)
	case in.StartDate.IsZero():
		return fmt.Errorf("%w: startDate is required", apperr.ErrValidation)
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return fmt.Errorf("%w: endDate before startDate", apperr.ErrValidation)
	case in.Price <= 0:
		return fmt.Errorf("%w: price must be positive", apperr.ErrValidation)
	}
	return nil
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	return s.Events.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	return s.Events.FindByID(ctx, id)
}

func (s *EventService) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event := &models.Event{
		Title:            in.Title,
		Category:         in.Category,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		Location:         in.Location,
		ImageURL:         in.ImageURL,
		Price:            in.Price,
		TicketsAvailable: in.TicketsAvailable,
		Organizer:        in.Organizer,
		Description:      in.Description,
	}
	if err := s.Events.Create(ctx, event); err != nil {
		return nil, err
	}
	s.reindex(ctx, event)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id uint, in EventInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event, err := s.Events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Title = in.Title
	event.Category = in.Category
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.Location = in.Location
	event.ImageURL = in.ImageURL
	event.Price = in.Price
	event.TicketsAvailable = in.TicketsAvailable
	event.Organizer = in.Organizer
	event.Description = in.Description
	if err := s.Events.Update(ctx, event); err != nil {
		return nil, err
	}
	s.reindex(ctx, event)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id uint) error {
	if err := s.Events.Delete(ctx, id); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteEvent(ctx, id); err != nil {
			logging.FromContext(ctx).Error("event_unindex_failed", "event_id", id, "error", err)
		}
	}
	return nil
}

func (s *EventService) reindex(ctx context.Context, event *models.Event) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexEvent(ctx, event); err != nil {
		logging.FromContext(ctx).Error("event_index_failed", "event_id", event.ID, "error", err)
	}
}
