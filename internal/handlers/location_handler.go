package handlers

import (
	"log"
	"net/http"

	"bus-tracking-backend/internal/middleware"
	"bus-tracking-backend/internal/models"
	"bus-tracking-backend/internal/services"
	"bus-tracking-backend/internal/store"
	"bus-tracking-backend/internal/websocket"

	"github.com/gin-gonic/gin"
)

// APIResponse общий формат ответа API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LocationUpdateOptions настройки политики обновления локации
type LocationUpdateOptions struct {
	// RequireKnownBus при true обновление для неизвестного busId
	// отклоняется с 404 вместо неявного создания записи
	RequireKnownBus bool
}

// LocationUpdate принимает отчет о позиции от устройства водителя
// и сохраняет последнюю известную позицию автобуса
func LocationUpdate(buses store.BusStore, cache *services.CacheService, opts LocationUpdateOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LocationUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// Нечисловые координаты (например, строки) не проходят
			// привязку JSON и отклоняются здесь же
			middleware.TrackLocationUpdate("invalid")
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Неверный формат данных: busId, lat, lng обязательны",
			})
			return
		}

		busID := req.Key()
		lat, lng := req.Coordinates()

		// Проверяем именно присутствие полей, а не истинность значений:
		// нулевые координаты валидны, отсутствующие — нет
		if busID == "" || lat == nil || lng == nil {
			middleware.TrackLocationUpdate("invalid")
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "busId, lat, lng обязательны",
			})
			return
		}

		if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
			middleware.TrackLocationUpdate("invalid")
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Координаты вне допустимого диапазона",
			})
			return
		}

		if opts.RequireKnownBus {
			known, err := buses.Exists(c.Request.Context(), busID)
			if err != nil {
				log.Printf("Ошибка при проверке автобуса %s: %v", busID, err)
				middleware.TrackLocationUpdate("error")
				c.JSON(http.StatusInternalServerError, APIResponse{
					Success: false,
					Message: "Ошибка сервера",
				})
				return
			}
			if !known {
				middleware.TrackLocationUpdate("unknown_bus")
				c.JSON(http.StatusNotFound, APIResponse{
					Success: false,
					Message: "Автобус не найден",
				})
				return
			}
		}

		bus, err := buses.Upsert(c.Request.Context(), busID, *lat, *lng)
		if err != nil {
			log.Printf("Ошибка при обновлении локации автобуса %s: %v", busID, err)
			middleware.TrackLocationUpdate("error")
			c.JSON(http.StatusInternalServerError, APIResponse{
				Success: false,
				Message: "Ошибка сервера",
			})
			return
		}

		// Сбрасываем кэшированный снимок, чтобы зрители карты увидели
		// свежую позицию при следующем запросе списка
		if err := cache.InvalidateSnapshot(c.Request.Context()); err != nil {
			log.Printf("Ошибка при сбросе кэша снимка: %v", err)
		}

		websocket.SendBusLocationUpdate(bus.BusID, bus.Latitude, bus.Longitude, bus.UpdatedAt)
		middleware.TrackLocationUpdate("ok")

		c.JSON(http.StatusOK, APIResponse{
			Success: true,
			Message: "Локация успешно обновлена",
			Data:    bus.ToResponse(),
		})
	}
}
