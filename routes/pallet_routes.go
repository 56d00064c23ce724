package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupPalletRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES+"/pallets", middleware.AuthMiddleware)

	palletController := &controllers.PalletController{}

	api.Use(database.InjectDBMiddleware(palletController))

	api.Post("/", palletController.CreatePallet)
	api.Get("/", palletController.GetAllPallets)
	api.Get("/pending", palletController.GetPendingPallets)
	api.Delete("/:id", palletController.DeletePallet)
}
