package controllers

import (
	"time"

	"wms-app/config"
	"wms-app/database"
	"wms-app/models"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(DB *gorm.DB) *AuthController {
	return &AuthController{DB: DB}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Unit     string `json:"unit" validate:"required"`
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	masterDB, err := database.OpenMasterDB()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to master DB"})
	}

	var bu models.BusinessUnit
	if err := masterDB.First(&bu, "db_name = ? AND is_active = ?", req.Unit, true).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unknown business unit"})
	}

	unitDB, err := database.GetDBConnection(req.Unit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to connect to unit DB"})
	}

	var user models.User
	if err := unitDB.First(&user, "username = ?", req.Username).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(time.Duration(config.JWTExpiration) * time.Second)

	session := models.UserSession{
		SessionID:      sessionID,
		UserID:         user.ID,
		Unit:           req.Unit,
		IsActive:       true,
		ExpiresAt:      expiresAt,
		LastActivityAt: time.Now(),
	}
	if err := unitDB.Create(&session).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	claims := jwt.MapClaims{
		"user_id":    float64(user.ID),
		"username":   user.Username,
		"unit":       req.Unit,
		"session_id": sessionID,
		"exp":        expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.JWTSecret))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign token"})
	}

	ctx.Cookie(config.GetTokenCookie(signed))

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"token":    signed,
			"username": user.Username,
			"name":     user.Name,
			"unit":     req.Unit,
		},
	})
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	sessionID, ok := ctx.Locals("sessionID").(string)
	if !ok || sessionID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
	}

	var userSession models.UserSession
	if err := c.DB.First(&userSession, "session_id = ? AND is_active = ?", sessionID, true).Error; err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
	}

	userSession.IsActive = false
	userSession.LastActivityAt = time.Now()
	c.DB.Save(&userSession)

	ctx.Cookie(config.GetTokenCookie(""))

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Logout successful",
	})
}

func (c *AuthController) IsLoggedIn(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals("userData").(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not logged in"})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    claims,
	})
}
