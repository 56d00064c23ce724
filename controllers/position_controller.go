package controllers

import (
	"fmt"
	"time"

	"wms-app/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type PositionController struct {
	DB *gorm.DB
}

func NewPositionController(DB *gorm.DB) *PositionController {
	return &PositionController{DB: DB}
}

// READ ALL
func (pc *PositionController) GetAllPositions(ctx *fiber.Ctx) error {
	repo := repositories.NewPositionRepository(pc.DB)
	positions, err := repo.GetPositions(ctx.Query("whs_code"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    positions,
	})
}

// GetOccupancy lists which positions currently hold a pallet.
func (pc *PositionController) GetOccupancy(ctx *fiber.Ctx) error {
	whsCode := ctx.Query("whs_code")
	if whsCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "whs_code is required"})
	}

	repo := repositories.NewPositionRepository(pc.DB)
	occupied, err := repo.GetOccupiedPositions(whsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    occupied,
	})
}

// ExportPositions writes the position list of a warehouse to an .xlsx file.
func (pc *PositionController) ExportPositions(ctx *fiber.Ctx) error {
	whsCode := ctx.Query("whs_code")
	if whsCode == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "whs_code is required"})
	}

	repo := repositories.NewPositionRepository(pc.DB)
	positions, err := repo.GetPositions(whsCode)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Positions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Code", "Description", "Aisle", "Module", "Level", "Max Capacity (kg)", "Active"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, p := range positions {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Row)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.ModuleNo)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Floor)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), p.MaxCapacity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), p.IsActive)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write Excel file"})
	}

	filename := fmt.Sprintf("positions_%s_%s.xlsx", whsCode, time.Now().Format("20060102_150405"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return ctx.Send(buf.Bytes())
}
