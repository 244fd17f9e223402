package models

import (
	"time"
)

// Bus модель последней известной позиции автобуса.
// Одна запись на busId, история перемещений не хранится.
type Bus struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	BusID     string    `json:"busId" gorm:"column:bus_id;uniqueIndex;not null;type:varchar(64)"`
	Latitude  float64   `json:"latitude" gorm:"column:latitude;not null"`
	Longitude float64   `json:"longitude" gorm:"column:longitude;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at;type:timestamp with time zone"`
}

func (Bus) TableName() string {
	return "buses"
}

// LocationUpdateRequest структура запроса на обновление локации.
// Поддерживаются оба варианта имен полей: busId/vehicleId, lat/latitude, lng/longitude.
// Координаты — указатели, чтобы отличать отсутствующее поле от валидного нуля.
type LocationUpdateRequest struct {
	BusID     string   `json:"busId"`
	VehicleID string   `json:"vehicleId"`
	Lat       *float64 `json:"lat"`
	Latitude  *float64 `json:"latitude"`
	Lng       *float64 `json:"lng"`
	Longitude *float64 `json:"longitude"`
}

// Key возвращает идентификатор автобуса из любого из двух полей
func (r *LocationUpdateRequest) Key() string {
	if r.BusID != "" {
		return r.BusID
	}
	return r.VehicleID
}

// Coordinates возвращает координаты из любой пары полей.
// nil означает, что поле отсутствует в запросе.
func (r *LocationUpdateRequest) Coordinates() (lat, lng *float64) {
	lat = r.Lat
	if lat == nil {
		lat = r.Latitude
	}
	lng = r.Lng
	if lng == nil {
		lng = r.Longitude
	}
	return lat, lng
}

// BusResponse структура позиции автобуса в ответах API
type BusResponse struct {
	BusID     string     `json:"busId"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// ToResponse преобразует запись в ответ API с защитными значениями
// по умолчанию для старых или неполных записей
func (b *Bus) ToResponse() BusResponse {
	resp := BusResponse{
		BusID:     b.BusID,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
	}
	if resp.BusID == "" {
		resp.BusID = "unknown"
	}
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}
