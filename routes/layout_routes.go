package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupLayoutRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES+"/layouts", middleware.AuthMiddleware)

	layoutController := &controllers.LayoutController{}

	api.Use(database.InjectDBMiddleware(layoutController))

	api.Post("/", layoutController.CreateLayout)
	api.Get("/", layoutController.GetAllLayouts)
	api.Get("/:id", layoutController.GetLayoutByID)
	api.Put("/:id/dimensions", layoutController.UpdateDimensions)
	api.Post("/:id/cells/toggle", layoutController.ToggleCell)
	api.Post("/:id/cells/bulk", layoutController.BulkCells)
	api.Get("/:id/grid", layoutController.GetGrid)
	api.Post("/:id/generate", layoutController.GeneratePositions)
}
