package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupPositionRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES+"/positions", middleware.AuthMiddleware)

	positionController := &controllers.PositionController{}

	api.Use(database.InjectDBMiddleware(positionController))

	api.Get("/", positionController.GetAllPositions)
	api.Get("/occupancy", positionController.GetOccupancy)
	api.Get("/export", positionController.ExportPositions)
}
