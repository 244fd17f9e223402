package store

import (
	"context"
	"errors"

	"bus-tracking-backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateUsername имя пользователя уже занято
var ErrDuplicateUsername = errors.New("имя пользователя уже занято")

// ErrUserNotFound пользователь не найден
var ErrUserNotFound = errors.New("пользователь не найден")

// UserStore хранилище аккаунтов
type UserStore interface {
	// Create создает аккаунт одной условной вставкой: уникальность
	// username гарантирует индекс базы, а не предварительная проверка
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id uint) (models.User, error)
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// Требует gorm.Config{TranslateError: true} при подключении
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
