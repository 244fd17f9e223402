package routes

import (
	"bus-tracking-backend/internal/handlers"
	"bus-tracking-backend/internal/middleware"
	"bus-tracking-backend/internal/services"
	"bus-tracking-backend/internal/store"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(api *gin.RouterGroup, buses store.BusStore, users store.UserStore, cache *services.CacheService, locationOpts handlers.LocationUpdateOptions) {
	// Публичные маршруты для аутентификации
	api.POST("/register", handlers.Register(users))
	api.POST("/login", handlers.Login(users))

	// Обновление локации от устройств водителей и снимок для карты
	api.POST("/location/update", handlers.LocationUpdate(buses, cache, locationOpts))
	api.GET("/buses", handlers.BusList(buses, cache))

	// Защищенные маршруты (требуют аутентификации)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth())
	{
		protected.GET("/user", handlers.GetCurrentUser(users))
	}
}
