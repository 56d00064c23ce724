package main

import (
	"fmt"
	"log"

	"wms-app/config"
	"wms-app/controllers/idgen"
	"wms-app/database"
	"wms-app/middleware"
	"wms-app/migration"
	"wms-app/routes"

	"github.com/gofiber/fiber/v2"
)

func main() {

	config.LoadConfig()

	app := fiber.New()

	// Pastikan database ada
	database.EnsureDatabaseExists(config.DBName)
	database.EnsureDatabaseExists(config.DBUnit)

	// Connect to database
	mainDB, err := database.OpenMasterDB()

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate models
	err = migration.Migrate(mainDB)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	unitDB, err := database.OpenDatabaseConnection(config.DBUnit)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = migration.MigrateBusinessUnit(unitDB)
	if err != nil {
		log.Fatalf("Failed to auto migrate unit database: %v", err)
	}

	database.SeedUnit(mainDB)

	idgen.Init()
	database.RunSeeders(unitDB)

	// Setup CORS middleware
	config.SetupCORS(app)

	// Setup routes
	routes.SetupAuthRoutes(app)
	routes.SetupWarehouseRoutes(app)
	routes.SetupLayoutRoutes(app)
	routes.SetupPositionRoutes(app)
	routes.SetupPalletRoutes(app)
	routes.SetupAllocationRoutes(app)

	api := app.Group(config.MAIN_ROUTES)
	api.Post("/configurations/create-db", middleware.AuthMiddleware, database.CreateDatabase)
	api.Get("/configurations/get-all-bu", database.GetAllBusinessUnit)
	api.Post("/configurations/db-migrate", database.MigrateDB)

	port := config.APP_PORT
	fmt.Println("🚀 Server berjalan di port " + port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}

}
