package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAllocationRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES+"/allocation", middleware.AuthMiddleware)

	allocationController := &controllers.AllocationController{}

	api.Use(database.InjectDBMiddleware(allocationController))

	api.Post("/single", allocationController.StartSingle)
	api.Post("/wave", allocationController.StartWave)
	api.Post("/confirm", allocationController.Confirm)
	api.Post("/resume", allocationController.Resume)
	api.Post("/cancel", allocationController.Cancel)
	api.Get("/status", allocationController.Status)
}
