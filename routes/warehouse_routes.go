package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupWarehouseRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES+"/warehouses", middleware.AuthMiddleware)

	warehouseController := &controllers.WarehouseController{}

	api.Use(database.InjectDBMiddleware(warehouseController))

	api.Post("/", warehouseController.CreateWarehouse)
	api.Get("/", warehouseController.GetAllWarehouses)
	api.Get("/:id", warehouseController.GetWarehouseByID)
	api.Put("/:id", warehouseController.UpdateWarehouse)
	api.Delete("/:id", warehouseController.DeleteWarehouse)
}
