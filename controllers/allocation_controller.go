package controllers

import (
	"errors"
	"sync"

	"wms-app/database"
	"wms-app/models"
	"wms-app/repositories"
	"wms-app/types"
	"wms-app/utils"
	"wms-app/wms/allocation"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AllocationController struct {
	DB *gorm.DB
}

func NewAllocationController(DB *gorm.DB) *AllocationController {
	return &AllocationController{DB: DB}
}

// One engine per business-unit + warehouse, kept across requests because a
// wave is an operator session, not a single round-trip. The store connection
// is resolved from the registry key, never from the controller's injected DB
// field: that field is rewritten per request, and freezing it into the
// long-lived engine could bind a unit's waves to another unit's database.
var (
	engines     = make(map[string]*allocation.Engine)
	enginesLock sync.Mutex

	unitDB = database.GetDBConnection
)

func engineFor(unit, whsCode string) (*allocation.Engine, error) {
	enginesLock.Lock()
	defer enginesLock.Unlock()

	key := unit + "/" + whsCode
	if engine, exists := engines[key]; exists {
		return engine, nil
	}

	db, err := unitDB(unit)
	if err != nil {
		return nil, err
	}

	engine := allocation.NewEngine(allocation.Config{
		Store:    repositories.NewAllocationRepository(db),
		WhsCode:  whsCode,
		Notifier: utils.NewMailerFromConfig(),
	})
	engines[key] = engine
	return engine, nil
}

type SingleAllocationRequest struct {
	PalletID types.SnowflakeID `json:"pallet_id" validate:"required"`
	WhsCode  string            `json:"whs_code" validate:"required"`
	Method   string            `json:"method" validate:"required,oneof=manual scanner"`
}

type WaveAllocationRequest struct {
	PalletIDs []types.SnowflakeID `json:"pallet_ids" validate:"required,min=1"`
	WhsCode   string              `json:"whs_code" validate:"required"`
	Method    string              `json:"method" validate:"required,oneof=manual scanner"`
}

type ConfirmRequest struct {
	WhsCode             string `json:"whs_code" validate:"required"`
	Method              string `json:"method"`
	PositionCode        string `json:"position_code"`
	ScannedPalletCode   string `json:"scanned_pallet_code"`
	ScannedPositionCode string `json:"scanned_position_code"`
}

type WaveControlRequest struct {
	WhsCode string `json:"whs_code" validate:"required"`
}

func allocationStatus(err error) int {
	switch {
	case errors.Is(err, allocation.ErrWaveInProgress),
		errors.Is(err, allocation.ErrConfirmInFlight):
		return fiber.StatusConflict
	case errors.Is(err, allocation.ErrNoActiveWave),
		errors.Is(err, allocation.ErrNothingToConfirm),
		errors.Is(err, allocation.ErrEmptySelection),
		errors.Is(err, allocation.ErrScanEvidence),
		errors.Is(err, allocation.ErrUnknownMethod):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// StartSingle allocates one pallet: propose, then await confirmation.
func (ac *AllocationController) StartSingle(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)

	var req SingleAllocationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	engine, err := engineFor(unit, req.WhsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	snap, err := engine.StartSingle(ctx.Context(), req.PalletID, allocation.Method(req.Method))
	if err != nil {
		return ctx.Status(allocationStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    snap,
		})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Allocation started",
		"data":    snap,
	})
}

// StartWave begins a guided allocation session for the selected pallets, in
// selection order.
func (ac *AllocationController) StartWave(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)

	var req WaveAllocationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	engine, err := engineFor(unit, req.WhsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	snap, err := engine.StartWave(ctx.Context(), req.PalletIDs, allocation.Method(req.Method))
	if err != nil {
		return ctx.Status(allocationStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    snap,
		})
	}

	utils.InsertLog(ac.DB, models.IntegrationLog{
		SourceSystem: "wms-app",
		ProcessName:  "wave_allocation",
		RecordKey:    req.WhsCode,
		LogLevel:     "INFO",
		Message:      "Wave allocation started",
	})

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Wave started",
		"data":    snap,
	})
}

// Confirm commits the proposal currently awaiting confirmation.
func (ac *AllocationController) Confirm(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)
	userID := int(ctx.Locals("userID").(float64))

	var req ConfirmRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	engine, err := engineFor(unit, req.WhsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	snap, err := engine.ConfirmCurrent(ctx.Context(), allocation.Evidence{
		Method:              allocation.Method(req.Method),
		PositionCode:        req.PositionCode,
		ScannedPalletCode:   req.ScannedPalletCode,
		ScannedPositionCode: req.ScannedPositionCode,
		AllocatedBy:         userID,
	})
	if err != nil {
		var confirmErr *allocation.ConfirmationError
		if errors.As(err, &confirmErr) {
			utils.InsertLog(ac.DB, models.IntegrationLog{
				SourceSystem: "wms-app",
				ProcessName:  "wave_allocation",
				RecordKey:    confirmErr.PalletID.String(),
				LogLevel:     "ERROR",
				Message:      confirmErr.Error(),
			})
		}
		return ctx.Status(allocationStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    snap,
		})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Allocation confirmed",
		"data":    snap,
	})
}

// Resume re-attempts the wave after a surfaced failure.
func (ac *AllocationController) Resume(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)

	var req WaveControlRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.WhsCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "whs_code is required"})
	}

	engine, err := engineFor(unit, req.WhsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	snap, err := engine.Resume(ctx.Context())
	if err != nil {
		return ctx.Status(allocationStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    snap,
		})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Wave resumed",
		"data":    snap,
	})
}

// Cancel resets the wave. Already-confirmed allocations stay final.
func (ac *AllocationController) Cancel(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)

	var req WaveControlRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.WhsCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "whs_code is required"})
	}

	engine, err := engineFor(unit, req.WhsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	snap := engine.CancelWave()

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Wave cancelled",
		"data":    snap,
	})
}

// Status exposes the wave progress and current proposal.
func (ac *AllocationController) Status(ctx *fiber.Ctx) error {
	unit := ctx.Locals("unit").(string)

	whsCode := ctx.Query("whs_code")
	if whsCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "whs_code is required"})
	}

	engine, err := engineFor(unit, whsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to database"})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    engine.Snapshot(),
	})
}
