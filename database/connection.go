package database

import (
	"fmt"
	"log"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"wms-app/config"
	"wms-app/migration"
	"wms-app/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
)

func OpenMasterDB() (*gorm.DB, error) {
	_, dialector := getDSNAndDialector(config.DBName)
	return gorm.Open(dialector, &gorm.Config{})
}

func OpenDatabaseConnection(dbName string) (*gorm.DB, error) {
	_, dialector := getDSNAndDialector(dbName)
	return gorm.Open(dialector, &gorm.Config{})
}

var (
	dbPool  = make(map[string]*gorm.DB)
	dbMutex sync.Mutex
)

// GetDBConnection keeps one connection per business-unit database.
func GetDBConnection(dbName string) (*gorm.DB, error) {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if db, exists := dbPool[dbName]; exists {
		return db, nil
	}

	_, dialector := getDSNAndDialector(dbName)
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	dbPool[dbName] = db
	return db, nil
}

// InjectDBMiddleware resolves the business-unit database from the request
// context and sets it on the controller's DB field.
func InjectDBMiddleware(controller interface{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbName, ok := c.Locals("unit").(string)
		if !ok || dbName == "" {
			return fiber.NewError(fiber.StatusInternalServerError, "database name not found in context")
		}

		db, err := GetDBConnection(dbName)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "error connecting to database")
		}

		val := reflect.ValueOf(controller)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fiber.NewError(fiber.StatusInternalServerError, "controller must be a non-nil pointer")
		}

		dbField := val.Elem().FieldByName("DB")
		if !dbField.IsValid() || !dbField.CanSet() {
			return fiber.NewError(fiber.StatusInternalServerError, "DB field not found or cannot be set in controller")
		}
		if dbField.Type() != reflect.TypeOf((*gorm.DB)(nil)) {
			return fiber.NewError(fiber.StatusInternalServerError, "DB field has wrong type")
		}
		dbField.Set(reflect.ValueOf(db))

		return c.Next()
	}
}

func getDSNAndDialector(dbName string) (string, gorm.Dialector) {
	switch config.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			config.DBHost, config.DBUser, config.DBPassword, dbName, config.DBPort)
		return dsn, postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return dsn, mysql.Open(dsn)
	case "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return dsn, sqlserver.Open(dsn)
	default:
		log.Fatalf("Unsupported DB_DRIVER: %s", config.DBDriver)
		return "", nil
	}
}

func EnsureDatabaseExists(dbName string) {
	var dsn string
	var db *gorm.DB
	var err error

	// Connect without a database name
	switch config.DBDriver {
	case "postgres":
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=postgres port=%s sslmode=disable",
			config.DBHost, config.DBUser, config.DBPassword, config.DBPort)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "mssql":
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=master",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort)
		db, err = gorm.Open(sqlserver.Open(dsn), &gorm.Config{})
	default:
		log.Fatalf("Unsupported DB_DRIVER: %s", config.DBDriver)
	}

	if err != nil {
		log.Fatalf("Failed to connect to DB server: %v", err)
	}

	switch config.DBDriver {
	case "postgres":
		db.Exec("CREATE DATABASE " + dbName)
	case "mysql":
		db.Exec("CREATE DATABASE IF NOT EXISTS " + dbName)
	case "mssql":
		db.Exec("IF DB_ID('" + dbName + "') IS NULL CREATE DATABASE " + dbName)
	}
}

type DBRequest struct {
	Name string `json:"dbName"`
}

// CreateDatabase provisions a new business-unit database and registers it.
func CreateDatabase(c *fiber.Ctx) error {
	var req DBRequest

	userIDVal := c.Locals("userID")
	if userIDVal == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized: userID not found in context",
		})
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dbName := strings.TrimSpace(req.Name)
	if dbName == "" || !isValidDBName(dbName) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid database name"})
	}

	masterDB, err := OpenMasterDB()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to connect to master DB"})
	}

	var existing models.BusinessUnit
	if err := masterDB.First(&existing, "db_name = ?", dbName).Error; err == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Database already exists", "success": false})
	}

	EnsureDatabaseExists(dbName)

	userIDFloat, ok := userIDVal.(float64)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "userID is not a valid number",
		})
	}

	bu := models.BusinessUnit{
		DbName:    dbName,
		CreatedBy: int(userIDFloat),
	}

	if err := masterDB.Create(&bu).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to save BusinessUnit"})
	}

	return c.JSON(fiber.Map{"message": "Database " + dbName + " created successfully", "success": true, "data": dbName})
}

// MigrateDB migrates and seeds a business-unit database.
func MigrateDB(c *fiber.Ctx) error {
	var req DBRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dbName := strings.TrimSpace(req.Name)
	if dbName == "" || !isValidDBName(dbName) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid database name"})
	}

	unitDB, err := OpenDatabaseConnection(dbName)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to connect to unit DB"})
	}

	if err := migration.MigrateBusinessUnit(unitDB); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Migration failed: " + err.Error()})
	}
	RunSeeders(unitDB)

	return c.JSON(fiber.Map{"message": "Database migrated", "success": true, "data": dbName})
}

func GetAllBusinessUnit(c *fiber.Ctx) error {
	masterDB, err := OpenMasterDB()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to connect to master DB"})
	}

	var units []models.BusinessUnit
	if err := masterDB.Where("is_active = ?", true).Find(&units).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "data": units})
}

func isValidDBName(name string) bool {
	return regexp.MustCompile(`^[a-zA-Z0-9_]+$`).MatchString(name)
}
