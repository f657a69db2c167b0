package repositories

import (
	"context"
	"errors"

	"stayops/internal/apperrors"
	. "stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepository interface {
	Create(ctx context.Context, tx *gorm.DB, room *Room) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Room, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*Room, error)
}

type roomRepository struct {
	log logger.Logger
}

func NewRoomRepository() RoomRepository {
	return &roomRepository{log: logger.New("roomRepository")}
}

func (r *roomRepository) Create(ctx context.Context, tx *gorm.DB, room *Room) error {
	log := r.log.Function("Create")

	if err := gorm.G[Room](tx).Create(ctx, room); err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("room number %s already exists", room.Number)
		}
		return log.Err("failed to create room", err, "number", room.Number)
	}

	return nil
}

func (r *roomRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Room, error) {
	log := r.log.Function("GetByID")

	room, err := gorm.G[*Room](tx).
		Where(Room{BaseUUIDModel: BaseUUIDModel{ID: id}}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("room %s", id)
		}
		return nil, log.Err("failed to get room", err, "roomID", id)
	}

	return room, nil
}

func (r *roomRepository) ListActive(ctx context.Context, tx *gorm.DB) ([]*Room, error) {
	log := r.log.Function("ListActive")

	rooms, err := gorm.G[*Room](tx).
		Where(Room{IsActive: true}).
		Order("number ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list rooms", err)
	}

	return rooms, nil
}
