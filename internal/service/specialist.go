package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/model"
	"gorm.io/gorm"
)

// DirectoryServicer — интерфейс каталога специалистов.
type DirectoryServicer interface {
	GetByEmail(ctx context.Context, email string) (*model.Specialist, error)
	GetByID(ctx context.Context, id uint64) (*model.Specialist, error)
	Create(ctx context.Context, sp *model.Specialist) error
	Update(ctx context.Context, id uint64, callerUserID string, changes map[string]interface{}) (*model.Specialist, error)
}

// Directory — каталог специалистов поверх таблицы specialists.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// NormalizeEmail приводит email к хранимому виду: trim + lower case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail ищет запись по нормализованному email. При дублях берётся
// самая свежая по created_at.
func (s *Directory) GetByEmail(ctx context.Context, email string) (*model.Specialist, error) {
	norm := NormalizeEmail(email)
	if norm == "" {
		return nil, errs.ErrSpecialistNotFound
	}
	var sp model.Specialist
	err := s.db.WithContext(ctx).
		Where("email = ?", norm).
		Order("created_at DESC").
		First(&sp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSpecialistNotFound
		}
		return nil, fmt.Errorf("get specialist by email: %w", err)
	}
	return &sp, nil
}

func (s *Directory) GetByID(ctx context.Context, id uint64) (*model.Specialist, error) {
	var sp model.Specialist
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSpecialistNotFound
		}
		return nil, fmt.Errorf("get specialist: %w", err)
	}
	return &sp, nil
}

// Create вставляет запись каталога; email нормализуется перед записью.
func (s *Directory) Create(ctx context.Context, sp *model.Specialist) error {
	if sp.UserID == "" {
		return errors.New("create specialist: user id is empty")
	}
	sp.Email = NormalizeEmail(sp.Email)
	if sp.Email == "" {
		return errors.New("create specialist: email is empty")
	}
	if err := s.db.WithContext(ctx).Create(sp).Error; err != nil {
		return fmt.Errorf("create specialist: %w", err)
	}
	return nil
}

// Update применяет изменения к записи, если она принадлежит вызывающему.
// is_verified через этот путь не меняется: флаг выставляет администратор.
func (s *Directory) Update(ctx context.Context, id uint64, callerUserID string, changes map[string]interface{}) (*model.Specialist, error) {
	sp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp.UserID != callerUserID {
		return nil, errs.ErrNotOwner
	}
	delete(changes, "is_verified")
	if v, ok := changes["email"].(string); ok {
		changes["email"] = NormalizeEmail(v)
	}
	if len(changes) == 0 {
		return sp, nil
	}
	if err := s.db.WithContext(ctx).Model(sp).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update specialist: %w", err)
	}
	return s.GetByID(ctx, id)
}
