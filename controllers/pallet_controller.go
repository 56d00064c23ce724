package controllers

import (
	"wms-app/models"
	"wms-app/repositories"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PalletController struct {
	DB *gorm.DB
}

func NewPalletController(DB *gorm.DB) *PalletController {
	return &PalletController{DB: DB}
}

type PalletRequest struct {
	PalletCode  string `json:"pallet_code" validate:"required"`
	ShipmentRef string `json:"shipment_ref" validate:"required"`
	WhsCode     string `json:"whs_code" validate:"required"`
}

// CreatePallet registers a pallet that finished receiving conference and now
// waits for a storage position.
func (pc *PalletController) CreatePallet(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	var req PalletRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warehouse := models.Warehouse{}
	if err := pc.DB.First(&warehouse, "code = ?", req.WhsCode).Error; err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	pallet := models.Pallet{
		PalletCode:  req.PalletCode,
		ShipmentRef: req.ShipmentRef,
		WhsCode:     warehouse.Code,
		Status:      models.PalletStatusPending,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}

	if err := pc.DB.Create(&pallet).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Pallet created successfully",
		"data":    pallet,
	})
}

// GetPendingPallets lists pallets still waiting for allocation, oldest first.
func (pc *PalletController) GetPendingPallets(ctx *fiber.Ctx) error {
	repo := repositories.NewAllocationRepository(pc.DB)
	pending, err := repo.ListPendingPallets(ctx.Context(), ctx.Query("whs_code"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    pending,
	})
}

// READ ALL
func (pc *PalletController) GetAllPallets(ctx *fiber.Ctx) error {
	var pallets []models.Pallet
	query := pc.DB.Order("created_at asc")
	if whs := ctx.Query("whs_code"); whs != "" {
		query = query.Where("whs_code = ?", whs)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&pallets).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    pallets,
	})
}

// DELETE
func (pc *PalletController) DeletePallet(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	userID := int(ctx.Locals("userID").(float64))

	var pallet models.Pallet
	if err := pc.DB.First(&pallet, "id = ?", id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pallet not found"})
	}

	if pallet.Status == models.PalletStatusAllocated {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cannot delete an allocated pallet"})
	}

	pallet.DeletedBy = userID
	if err := pc.DB.Save(&pallet).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := pc.DB.Delete(&pallet).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Pallet deleted successfully",
	})
}
