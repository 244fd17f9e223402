package store

import (
	"context"
	"time"

	"bus-tracking-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BusStore хранилище последних известных позиций автобусов.
// Интерфейс передается в хендлеры явно, что позволяет подменять
// хранилище в тестах.
type BusStore interface {
	// Upsert создает запись при первом обновлении и полностью
	// перезаписывает координаты и updated_at при последующих
	Upsert(ctx context.Context, busID string, lat, lng float64) (models.Bus, error)
	// ListAll возвращает все записи, самые свежие первыми
	ListAll(ctx context.Context) ([]models.Bus, error)
	// Exists проверяет, известен ли автобус
	Exists(ctx context.Context, busID string) (bool, error)
}

type GormBusStore struct {
	db *gorm.DB
}

func NewGormBusStore(db *gorm.DB) *GormBusStore {
	return &GormBusStore{db: db}
}

func (s *GormBusStore) Upsert(ctx context.Context, busID string, lat, lng float64) (models.Bus, error) {
	bus := models.Bus{
		BusID:     busID,
		Latitude:  lat,
		Longitude: lng,
		UpdatedAt: time.Now(),
	}

	// Атомарный upsert через ON CONFLICT: никакой проверки существования
	// перед записью, гонка двух одновременных обновлений решается на
	// уровне базы, побеждает последний зафиксированный коммит
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bus_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"latitude", "longitude", "updated_at"}),
	}).Create(&bus).Error
	if err != nil {
		return models.Bus{}, err
	}

	return bus, nil
}

func (s *GormBusStore) ListAll(ctx context.Context) ([]models.Bus, error) {
	buses := []models.Bus{}
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&buses).Error; err != nil {
		return nil, err
	}
	return buses, nil
}

func (s *GormBusStore) Exists(ctx context.Context, busID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Bus{}).Where("bus_id = ?", busID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
