package handlers

import (
	"log"
	"net/http"

	"bus-tracking-backend/internal/models"
	"bus-tracking-backend/internal/services"
	"bus-tracking-backend/internal/store"

	"github.com/gin-gonic/gin"
)

// BusList возвращает снимок позиций всех автобусов, самые свежие первыми
func BusList(buses store.BusStore, cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Сначала пробуем отдать снимок из кэша
		cached := []models.BusResponse{}
		found, err := cache.GetSnapshot(ctx, &cached)
		if err != nil {
			// Поврежденный или недоступный кэш не должен ломать ответ,
			// идем в хранилище
			log.Printf("Ошибка при чтении снимка из кэша: %v", err)
		}
		if found {
			c.JSON(http.StatusOK, cached)
			return
		}

		all, err := buses.ListAll(ctx)
		if err != nil {
			log.Printf("Ошибка при получении списка автобусов: %v", err)
			c.JSON(http.StatusInternalServerError, APIResponse{
				Success: false,
				Message: "Не удалось получить список автобусов",
			})
			return
		}

		resp := make([]models.BusResponse, 0, len(all))
		for i := range all {
			resp = append(resp, all[i].ToResponse())
		}

		if err := cache.SetSnapshot(ctx, resp); err != nil {
			log.Printf("Ошибка при сохранении снимка в кэш: %v", err)
		}

		c.JSON(http.StatusOK, resp)
	}
}
