package repositories

import (
	"context"
	"errors"

	"stayops/internal/apperrors"
	. "stayops/internal/models"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *Reservation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Reservation, error)
	UpdateAccessToken(ctx context.Context, tx *gorm.DB, id uuid.UUID, token string) error

	// CheckoutsDue lists reservations whose planned end falls inside the
	// window and that have a room assigned. This is the autolist source and
	// is independent of whether a checkout event exists yet.
	CheckoutsDue(ctx context.Context, tx *gorm.DB, window timewindow.Window) ([]*Reservation, error)
}

type reservationRepository struct {
	log logger.Logger
}

func NewReservationRepository() ReservationRepository {
	return &reservationRepository{log: logger.New("reservationRepository")}
}

func (r *reservationRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	reservation *Reservation,
) error {
	log := r.log.Function("Create")

	if err := gorm.G[Reservation](tx).Create(ctx, reservation); err != nil {
		return log.Err("failed to create reservation", err, "guestName", reservation.GuestName)
	}

	return nil
}

func (r *reservationRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Reservation, error) {
	log := r.log.Function("GetByID")

	reservation, err := gorm.G[*Reservation](tx).
		Preload("Room", nil).
		Where(Reservation{BaseUUIDModel: BaseUUIDModel{ID: id}}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("reservation %s", id)
		}
		return nil, log.Err("failed to get reservation", err, "reservationID", id)
	}

	return reservation, nil
}

func (r *reservationRepository) UpdateAccessToken(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	token string,
) error {
	log := r.log.Function("UpdateAccessToken")

	result := tx.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", id).
		Update("access_token", token)
	if result.Error != nil {
		return log.Err("failed to rotate reservation token", result.Error, "reservationID", id)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("reservation %s", id)
	}

	return nil
}

func (r *reservationRepository) CheckoutsDue(
	ctx context.Context,
	tx *gorm.DB,
	window timewindow.Window,
) ([]*Reservation, error) {
	log := r.log.Function("CheckoutsDue")

	reservations, err := gorm.G[*Reservation](tx).
		Preload("Room", nil).
		Where("planned_end >= ? AND planned_end < ? AND room_id IS NOT NULL",
			window.Start, window.End).
		Order("planned_end ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list due checkouts", err)
	}

	return reservations, nil
}
