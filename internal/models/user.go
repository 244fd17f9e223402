package models

import (
	"time"
)

// Роль по умолчанию для новых аккаунтов
const DefaultRole = "driver"

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Username     string    `json:"username" gorm:"column:username;uniqueIndex;not null;type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null;type:text"`
	Role         string    `json:"role" gorm:"column:role;default:'driver';type:varchar(20)"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}

// UserResponse публичные поля аккаунта, пароль наружу не отдаем
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
