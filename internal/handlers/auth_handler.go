package handlers

import (
	"errors"
	"log"
	"net/http"

	"bus-tracking-backend/internal/models"
	"bus-tracking-backend/internal/store"
	"bus-tracking-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Token   string              `json:"token,omitempty"`
	User    models.UserResponse `json:"user,omitempty"`
}

// Register создает новый аккаунт. Пароль хранится только в виде
// bcrypt-хэша, уникальность имени обеспечивает индекс базы.
func Register(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, AuthResponse{
				Success: false,
				Message: "username и password обязательны",
			})
			return
		}

		role := req.Role
		if role == "" {
			role = models.DefaultRole
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка при создании пользователя",
			})
			return
		}

		user := models.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			Role:         role,
		}

		// Одна условная вставка вместо проверки существования с
		// последующим созданием: гонка двух одновременных регистраций
		// разрешается уникальным индексом
		if err := users.Create(c.Request.Context(), &user); err != nil {
			if errors.Is(err, store.ErrDuplicateUsername) {
				c.JSON(http.StatusConflict, AuthResponse{
					Success: false,
					Message: "Пользователь с таким именем уже существует",
				})
				return
			}
			log.Printf("Ошибка при создании пользователя %s: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка при создании пользователя",
			})
			return
		}

		token, err := utils.GenerateJWT(user.ID, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка при создании токена",
			})
			return
		}

		c.JSON(http.StatusCreated, AuthResponse{
			Success: true,
			Token:   token,
			User:    user.ToResponse(),
		})
	}
}

// Login проверяет учетные данные и выдает JWT токен.
// И для неизвестного имени, и для неверного пароля ответ одинаковый,
// чтобы не раскрывать существование аккаунта.
func Login(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, AuthResponse{
				Success: false,
				Message: "username и password обязательны",
			})
			return
		}

		user, err := users.FindByUsername(c.Request.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, AuthResponse{
					Success: false,
					Message: "Неверное имя пользователя или пароль",
				})
				return
			}
			log.Printf("Ошибка при поиске пользователя %s: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка сервера",
			})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, AuthResponse{
				Success: false,
				Message: "Неверное имя пользователя или пароль",
			})
			return
		}

		token, err := utils.GenerateJWT(user.ID, user.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка при создании токена",
			})
			return
		}

		c.JSON(http.StatusOK, AuthResponse{
			Success: true,
			Token:   token,
			User:    user.ToResponse(),
		})
	}
}

// GetCurrentUser возвращает данные аутентифицированного пользователя
func GetCurrentUser(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, AuthResponse{
					Success: false,
					Message: "Пользователь не найден",
				})
				return
			}
			log.Printf("Ошибка при получении пользователя %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, AuthResponse{
				Success: false,
				Message: "Ошибка сервера",
			})
			return
		}

		c.JSON(http.StatusOK, AuthResponse{
			Success: true,
			User:    user.ToResponse(),
		})
	}
}
