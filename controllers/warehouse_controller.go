package controllers

import (
	"wms-app/models"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WarehouseController struct {
	DB *gorm.DB
}

func NewWarehouseController(DB *gorm.DB) *WarehouseController {
	return &WarehouseController{DB: DB}
}

type WarehouseRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CREATE
func (wc *WarehouseController) CreateWarehouse(ctx *fiber.Ctx) error {
	userID := int(ctx.Locals("userID").(float64))

	var req WarehouseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	warehouse := models.Warehouse{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	if err := wc.DB.Create(&warehouse).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Warehouse created successfully",
		"data":    warehouse,
	})
}

// READ ALL
func (wc *WarehouseController) GetAllWarehouses(ctx *fiber.Ctx) error {
	var warehouses []models.Warehouse
	if err := wc.DB.Find(&warehouses).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    warehouses,
	})
}

// READ BY ID
func (wc *WarehouseController) GetWarehouseByID(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	var warehouse models.Warehouse

	if err := wc.DB.First(&warehouse, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    warehouse,
	})
}

// UPDATE
func (wc *WarehouseController) UpdateWarehouse(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	userID := int(ctx.Locals("userID").(float64))

	var warehouse models.Warehouse
	if err := wc.DB.First(&warehouse, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	var req WarehouseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if req.Code != "" {
		warehouse.Code = req.Code
	}
	if req.Name != "" {
		warehouse.Name = req.Name
	}
	warehouse.Description = req.Description
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}
	warehouse.UpdatedBy = userID

	if err := wc.DB.Save(&warehouse).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Warehouse updated successfully",
		"data":    warehouse,
	})
}

// DELETE
func (wc *WarehouseController) DeleteWarehouse(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	userID := int(ctx.Locals("userID").(float64))

	var warehouse models.Warehouse
	if err := wc.DB.First(&warehouse, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Warehouse not found"})
	}

	warehouse.DeletedBy = userID
	if err := wc.DB.Save(&warehouse).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := wc.DB.Delete(&warehouse).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Warehouse deleted successfully",
	})
}
