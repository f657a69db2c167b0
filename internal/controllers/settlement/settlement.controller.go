package settlementController

import (
	"context"
	"sort"
	"time"

	"stayops/config"
	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"
	"stayops/internal/repositories"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettlementController struct {
	taskRepo repositories.TaskRepository
	rateRepo repositories.RateRepository
	tx       services.TxExecutor
	db       database.DB
	loc      *time.Location
}

// WorkerSettlement is one worker's aggregate over the requested window.
type WorkerSettlement struct {
	WorkerID uuid.UUID       `json:"workerId"`
	Name     string          `json:"name"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
}

type UpsertRateRequest struct {
	WorkerID uuid.UUID       `json:"workerId"`
	RoomType string          `json:"roomType"`
	Amount   decimal.Decimal `json:"amount"`
}

type SettlementControllerInterface interface {
	Totals(ctx context.Context, period timewindow.Period, referenceDate string) ([]WorkerSettlement, error)
	UpsertRate(ctx context.Context, request *UpsertRateRequest) (*CleaningRate, error)
	DeleteRate(ctx context.Context, workerID uuid.UUID, roomType string) error
	ListRates(ctx context.Context) ([]*CleaningRate, error)
}

func New(
	repos repositories.Repository,
	tx services.TxExecutor,
	db database.DB,
	config config.Config,
) SettlementControllerInterface {
	return &SettlementController{
		taskRepo: repos.Task,
		rateRepo: repos.Rate,
		tx:       tx,
		db:       db,
		loc:      timewindow.Location(config.CivilOffsetMinutes),
	}
}

// Totals aggregates completed assigned tasks against the current rate table
// over the window. Deliberately uncached and recomputed from live rows each
// call: editing a rate changes historical totals on the next computation.
// A worker/room-type pair with no rate contributes zero, not an error.
func (c *SettlementController) Totals(
	ctx context.Context,
	period timewindow.Period,
	referenceDate string,
) ([]WorkerSettlement, error) {
	log := logger.New("settlementController").TraceFromContext(ctx).Function("Totals")

	window := timewindow.ForPeriod(period, referenceDate, c.loc)

	tasks, err := c.taskRepo.DoneTasksInWindow(ctx, c.db.SQL, window)
	if err != nil {
		return nil, err
	}

	workerIDs := make([]uuid.UUID, 0, len(tasks))
	seen := make(map[uuid.UUID]bool)
	for _, task := range tasks {
		if task.WorkerID != nil && !seen[*task.WorkerID] {
			seen[*task.WorkerID] = true
			workerIDs = append(workerIDs, *task.WorkerID)
		}
	}

	rates, err := c.rateRepo.ListForWorkers(ctx, c.db.SQL, workerIDs)
	if err != nil {
		return nil, err
	}

	rateTable := make(map[uuid.UUID]map[string]decimal.Decimal, len(workerIDs))
	for _, rate := range rates {
		if rateTable[rate.WorkerID] == nil {
			rateTable[rate.WorkerID] = make(map[string]decimal.Decimal)
		}
		rateTable[rate.WorkerID][rate.RoomType] = rate.Amount
	}

	totals := make(map[uuid.UUID]*WorkerSettlement)
	for _, task := range tasks {
		workerID := *task.WorkerID

		entry, ok := totals[workerID]
		if !ok {
			entry = &WorkerSettlement{WorkerID: workerID, Amount: decimal.Zero}
			if task.Worker != nil {
				entry.Name = task.Worker.Name
			}
			totals[workerID] = entry
		}

		entry.Count++
		if task.Room != nil {
			if amount, ok := rateTable[workerID][task.Room.RoomType]; ok {
				entry.Amount = entry.Amount.Add(amount)
			}
		}
	}

	result := make([]WorkerSettlement, 0, len(totals))
	for _, entry := range totals {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	log.Info("settlement computed",
		"period", period, "referenceDate", referenceDate, "workers", len(result))
	return result, nil
}

func (c *SettlementController) UpsertRate(
	ctx context.Context,
	request *UpsertRateRequest,
) (*CleaningRate, error) {
	log := logger.New("settlementController").TraceFromContext(ctx).Function("UpsertRate")

	if request.WorkerID == uuid.Nil {
		return nil, apperrors.Validation("workerId is required")
	}
	if request.RoomType == "" {
		return nil, apperrors.Validation("roomType is required")
	}
	if request.Amount.IsNegative() {
		return nil, apperrors.Validation("amount cannot be negative")
	}

	rate := &CleaningRate{
		WorkerID: request.WorkerID,
		RoomType: request.RoomType,
		Amount:   request.Amount,
	}

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.rateRepo.Upsert(ctx, tx, rate)
	})
	if err != nil {
		return nil, err
	}

	log.Info("cleaning rate upserted",
		"workerID", request.WorkerID, "roomType", request.RoomType)
	return rate, nil
}

func (c *SettlementController) DeleteRate(
	ctx context.Context,
	workerID uuid.UUID,
	roomType string,
) error {
	if workerID == uuid.Nil {
		return apperrors.Validation("workerId is required")
	}
	if roomType == "" {
		return apperrors.Validation("roomType is required")
	}

	return c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.rateRepo.Delete(ctx, tx, workerID, roomType)
	})
}

func (c *SettlementController) ListRates(ctx context.Context) ([]*CleaningRate, error) {
	return c.rateRepo.ListAll(ctx, c.db.SQL)
}
