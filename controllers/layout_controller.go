package controllers

import (
	"errors"

	"wms-app/models"
	"wms-app/repositories"
	"wms-app/utils"
	"wms-app/wms/layout"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LayoutController struct {
	DB *gorm.DB
}

func NewLayoutController(DB *gorm.DB) *LayoutController {
	return &LayoutController{DB: DB}
}

// The grid is operator-configurable; these are the screen bounds, the layout
// model itself only requires >= 1.
type LayoutRequest struct {
	WhsCode         string  `json:"whs_code" validate:"required"`
	Rows            int     `json:"rows" validate:"required,min=1,max=100"`
	Modules         int     `json:"modules" validate:"required,min=1,max=250"`
	Floors          int     `json:"floors" validate:"required,min=1,max=10"`
	CapacityPerCell float64 `json:"capacity_per_cell" validate:"required,gt=0"`
}

type DimensionsRequest struct {
	Rows    int `json:"rows" validate:"required,min=1,max=100"`
	Modules int `json:"modules" validate:"required,min=1,max=250"`
	Floors  int `json:"floors" validate:"required,min=1,max=10"`
}

type CellRequest struct {
	Row    int `json:"row" validate:"required,min=1"`
	Module int `json:"module" validate:"required,min=1"`
	Floor  int `json:"floor" validate:"required,min=1"`
}

type BulkCellsRequest struct {
	Cells    []CellRequest `json:"cells" validate:"required,min=1"`
	Activate bool          `json:"activate"`
}

// coreFromModel rebuilds the in-memory grid from the persisted record.
func coreFromModel(m *models.Layout) (*layout.Layout, error) {
	core, err := layout.NewWithDimensions(m.Rows, m.Modules, m.Floors, m.CapacityPerCell)
	if err != nil {
		return nil, err
	}
	cells := make([]layout.Cell, 0, len(m.InactiveCells))
	for _, c := range m.InactiveCells {
		cell := layout.Cell{Row: c.Row, Module: c.ModuleNo, Floor: c.Floor}
		if core.Contains(cell) {
			cells = append(cells, cell)
		}
	}
	if err := core.SetCells(cells, false); err != nil {
		return nil, err
	}
	return core, nil
}

// saveCore writes the grid state back: dimensions, recomputed capacity, and
// the full inactive-cell set (replaced, not merged).
func (lc *LayoutController) saveCore(m *models.Layout, core *layout.Layout, userID int) error {
	return lc.DB.Transaction(func(tx *gorm.DB) error {
		m.Rows = core.Rows()
		m.Modules = core.Modules()
		m.Floors = core.Floors()
		m.CapacityPerCell = core.CapacityPerCell()
		m.Capacity = core.Capacity()
		m.UpdatedBy = userID

		if err := tx.Unscoped().Where("layout_id = ?", m.ID).Delete(&models.LayoutInactiveCell{}).Error; err != nil {
			return err
		}
		rows := make([]models.LayoutInactiveCell, 0)
		for _, c := range core.InactiveCells() {
			rows = append(rows, models.LayoutInactiveCell{
				LayoutID: m.ID,
				Row:      c.Row,
				ModuleNo: c.Module,
				Floor:    c.Floor,
			})
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return err
			}
		}
		m.InactiveCells = rows

		return tx.Omit("InactiveCells").Save(m).Error
	})
}

func (lc *LayoutController) findLayout(ctx *fiber.Ctx) (*models.Layout, error) {
	var m models.Layout
	if err := lc.DB.Preload("InactiveCells").First(&m, ctx.Params("id")).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CREATE
func (lc *LayoutController) CreateLayout(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	req := LayoutRequest{
		Rows:            layout.DefaultRows,
		Modules:         layout.DefaultModules,
		Floors:          layout.DefaultFloors,
		CapacityPerCell: layout.DefaultCapacityPerCell,
	}
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warehouse := models.Warehouse{}
	if err := lc.DB.First(&warehouse, "code = ?", req.WhsCode).Error; err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	core, err := layout.NewWithDimensions(req.Rows, req.Modules, req.Floors, req.CapacityPerCell)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	m := models.Layout{
		WhsCode:         warehouse.Code,
		Rows:            core.Rows(),
		Modules:         core.Modules(),
		Floors:          core.Floors(),
		CapacityPerCell: core.CapacityPerCell(),
		Capacity:        core.Capacity(),
		CreatedBy:       userID,
		UpdatedBy:       userID,
	}

	if err := lc.DB.Create(&m).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Layout created successfully",
		"data":    m,
	})
}

// READ ALL
func (lc *LayoutController) GetAllLayouts(ctx *fiber.Ctx) error {
	var layouts []models.Layout
	query := lc.DB.Preload("InactiveCells")
	if whs := ctx.Query("whs_code"); whs != "" {
		query = query.Where("whs_code = ?", whs)
	}
	if err := query.Find(&layouts).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    layouts,
	})
}

// READ BY ID
func (lc *LayoutController) GetLayoutByID(ctx *fiber.Ctx) error {
	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    m,
	})
}

// UpdateDimensions resizes the grid. Inactive cells from the old grid are
// cleared, not remapped; the response tells the operator how many were lost.
func (lc *LayoutController) UpdateDimensions(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}

	var req DimensionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	core, err := coreFromModel(m)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	cleared := len(core.InactiveCells())
	if err := core.SetDimensions(req.Rows, req.Modules, req.Floors); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := lc.saveCore(m, core, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Layout dimensions updated, deactivated cells were reset",
		"data": fiber.Map{
			"layout":        m,
			"cells_cleared": cleared,
		},
	})
}

// ToggleCell flips one cell between active and inactive.
func (lc *LayoutController) ToggleCell(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}

	var req CellRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	core, err := coreFromModel(m)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	cell := layout.Cell{Row: req.Row, Module: req.Module, Floor: req.Floor}
	if err := core.ToggleCell(cell); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := lc.saveCore(m, core, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Cell toggled",
		"data": fiber.Map{
			"layout":    m,
			"is_active": core.IsActive(cell),
		},
	})
}

// BulkCells activates or deactivates many cells at once, e.g. all floors of
// the selected aisle-module pairs.
func (lc *LayoutController) BulkCells(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}

	var req BulkCellsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	core, err := coreFromModel(m)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	cells := make([]layout.Cell, 0, len(req.Cells))
	for _, c := range req.Cells {
		cells = append(cells, layout.Cell{Row: c.Row, Module: c.Module, Floor: c.Floor})
	}
	if err := core.SetCells(cells, req.Activate); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := lc.saveCore(m, core, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Cells updated",
		"data":    m,
	})
}

type gridCell struct {
	Row      int  `json:"row"`
	Module   int  `json:"module"`
	Floor    int  `json:"floor"`
	IsActive bool `json:"is_active"`
}

// GetGrid expands the layout into per-cell state for visualization. Grids
// beyond the render ceiling return a warning instead of hanging the screen.
func (lc *LayoutController) GetGrid(ctx *fiber.Ctx) error {
	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}

	core, err := coreFromModel(m)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if core.TotalCells() > layout.RenderCeiling {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Grid too large to render",
			"data": fiber.Map{
				"total_cells": core.TotalCells(),
				"ceiling":     layout.RenderCeiling,
			},
		})
	}

	cells := make([]gridCell, 0, core.TotalCells())
	for row := 1; row <= core.Rows(); row++ {
		for module := 1; module <= core.Modules(); module++ {
			for floor := 1; floor <= core.Floors(); floor++ {
				cell := layout.Cell{Row: row, Module: module, Floor: floor}
				cells = append(cells, gridCell{
					Row:      row,
					Module:   module,
					Floor:    floor,
					IsActive: core.IsActive(cell),
				})
			}
		}
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"rows":         core.Rows(),
			"modules":      core.Modules(),
			"floors":       core.Floors(),
			"capacity":     core.Capacity(),
			"active_cells": core.ActiveCells(),
			"cells":        cells,
		},
	})
}

// GeneratePositions materializes the position set and replaces the
// warehouse's existing positions. Delete-then-insert; blocked while pallets
// still occupy positions in the warehouse.
func (lc *LayoutController) GeneratePositions(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	m, err := lc.findLayout(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layout not found"})
	}

	core, err := coreFromModel(m)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	gen := layout.Generator{Force: ctx.QueryBool("force")}
	positions, err := gen.Generate(core)
	if errors.Is(err, layout.ErrGridTooLarge) {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Grid is very large, re-run with force=true to generate anyway",
			"error":   err.Error(),
		})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	positionRepo := repositories.NewPositionRepository(lc.DB)
	count, err := positionRepo.BulkReplace(m.WhsCode, positions, userID)
	if errors.Is(err, repositories.ErrPositionsOccupied) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Cannot regenerate positions while pallets occupy this warehouse",
		})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	utils.InsertLog(lc.DB, models.IntegrationLog{
		SourceSystem: "wms-app",
		ProcessName:  "position_generation",
		RecordKey:    m.WhsCode,
		LogLevel:     "INFO",
		Message:      "Generated storage positions from layout",
	})

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Positions generated successfully",
		"data": fiber.Map{
			"whs_code":  m.WhsCode,
			"generated": count,
			"capacity":  core.Capacity(),
		},
	})
}
