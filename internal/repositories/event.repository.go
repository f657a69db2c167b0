package repositories

import (
	"context"
	"errors"
	"time"

	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OCCUPANCY_CACHE_PREFIX = "occupancy_events"
	OCCUPANCY_CACHE_EXPIRY = time.Hour
)

type EventRepository interface {
	// AppendOnce inserts the event unless one of the same kind already exists
	// for the guest. The existence check is a fast path; the race between two
	// concurrent appends is closed by the partial unique index on
	// (guest_id, kind), whose violation surfaces as the same conflict.
	AppendOnce(ctx context.Context, tx *gorm.DB, event *OccupancyEvent) error

	ListByGuest(ctx context.Context, tx *gorm.DB, guestID uuid.UUID) ([]*OccupancyEvent, error)
	LatestCheckoutForRoom(
		ctx context.Context,
		tx *gorm.DB,
		roomID uuid.UUID,
		window timewindow.Window,
	) (*OccupancyEvent, error)

	// Delete is the administrative correction path. It removes the row
	// outright, which is what resets the append-once guard for that kind.
	// The removed event is returned so the caller can invalidate caches
	// once its transaction commits.
	Delete(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*OccupancyEvent, error)

	// InvalidateGuest drops the guest's cached event list. Callers invoke it
	// after their write transaction commits; clearing earlier would let a
	// concurrent read re-cache the pre-commit rows.
	InvalidateGuest(ctx context.Context, guestID uuid.UUID)
}

type eventRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewEventRepository(cache database.CacheClient) EventRepository {
	return &eventRepository{
		cache: cache,
		log:   logger.New("eventRepository"),
	}
}

func (r *eventRepository) AppendOnce(
	ctx context.Context,
	tx *gorm.DB,
	event *OccupancyEvent,
) error {
	log := r.log.Function("AppendOnce")

	var count int64
	err := tx.WithContext(ctx).
		Model(&OccupancyEvent{}).
		Where("guest_id = ? AND kind = ?", event.GuestID, event.Kind).
		Count(&count).Error
	if err != nil {
		return log.Err("failed to check for existing event", err,
			"guestID", event.GuestID, "kind", event.Kind)
	}

	if count > 0 {
		log.Warn("duplicate occupancy event refused",
			"guestID", event.GuestID, "kind", event.Kind)
		return apperrors.Conflict("%s already recorded for guest", event.Kind)
	}

	if err := gorm.G[OccupancyEvent](tx).Create(ctx, event); err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate occupancy event lost insert race",
				"guestID", event.GuestID, "kind", event.Kind)
			return apperrors.Conflict("%s already recorded for guest", event.Kind)
		}
		return log.Err("failed to append occupancy event", err,
			"guestID", event.GuestID, "kind", event.Kind)
	}

	return nil
}

func (r *eventRepository) ListByGuest(
	ctx context.Context,
	tx *gorm.DB,
	guestID uuid.UUID,
) ([]*OccupancyEvent, error) {
	log := r.log.Function("ListByGuest")

	var cached []*OccupancyEvent
	found, err := database.NewCacheBuilder(r.cache, guestID).
		WithContext(ctx).
		WithHash(OCCUPANCY_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get occupancy events from cache", "guestID", guestID, "error", err)
	}

	if found {
		return cached, nil
	}

	events, err := gorm.G[*OccupancyEvent](tx).
		Where(OccupancyEvent{GuestID: guestID}).
		Order("occurred_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list occupancy events", err, "guestID", guestID)
	}

	err = database.NewCacheBuilder(r.cache, guestID).
		WithContext(ctx).
		WithHash(OCCUPANCY_CACHE_PREFIX).
		WithStruct(events).
		WithTTL(OCCUPANCY_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache occupancy events", "guestID", guestID, "error", err)
	}

	return events, nil
}

func (r *eventRepository) LatestCheckoutForRoom(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	window timewindow.Window,
) (*OccupancyEvent, error) {
	log := r.log.Function("LatestCheckoutForRoom")

	event, err := gorm.G[*OccupancyEvent](tx).
		Where("room_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?",
			roomID, EventCheckout, window.Start, window.End).
		Order("occurred_at DESC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to find latest checkout", err, "roomID", roomID)
	}

	return event, nil
}

func (r *eventRepository) Delete(
	ctx context.Context,
	tx *gorm.DB,
	eventID uuid.UUID,
) (*OccupancyEvent, error) {
	log := r.log.Function("Delete")

	var event OccupancyEvent
	if err := tx.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event %s", eventID)
		}
		return nil, log.Err("failed to load event for delete", err, "eventID", eventID)
	}

	if err := tx.WithContext(ctx).Unscoped().Delete(&event).Error; err != nil {
		return nil, log.Err("failed to delete occupancy event", err, "eventID", eventID)
	}

	log.Info("occupancy event deleted", "eventID", eventID, "guestID", event.GuestID)
	return &event, nil
}

func (r *eventRepository) InvalidateGuest(ctx context.Context, guestID uuid.UUID) {
	err := database.NewCacheBuilder(r.cache, guestID).
		WithContext(ctx).
		WithHash(OCCUPANCY_CACHE_PREFIX).
		Delete()
	if err != nil {
		r.log.Warn("failed to clear occupancy cache", "guestID", guestID, "error", err)
	}
}
