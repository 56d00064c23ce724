package routes

import (
	"wms-app/config"
	"wms-app/controllers"
	"wms-app/database"
	"wms-app/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	api := app.Group(config.MAIN_ROUTES)

	authController := &controllers.AuthController{}

	api.Post("/login", authController.Login)

	protected := api.Group("/", middleware.AuthMiddleware)
	protected.Use(database.InjectDBMiddleware(authController))
	protected.Get("/logout", authController.Logout)
	protected.Get("/isLoggedIn", authController.IsLoggedIn)
}
