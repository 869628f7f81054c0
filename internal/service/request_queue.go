package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/model"
	"gorm.io/gorm"
)

// RequestQueueServicer — интерфейс очереди заявок (для подмены в тестах хендлеров).
type RequestQueueServicer interface {
	Create(ctx context.Context, createdBy, createdByName string) (*model.ChatRequest, error)
	ListAll(ctx context.Context) ([]model.ChatRequest, error)
	ListAcceptedBy(ctx context.Context, specialistID uint64) ([]model.ChatRequest, error)
	Accept(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error)
	Close(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error)
	CountPending(ctx context.Context) (int64, error)
}

// RequestQueue владеет жизненным циклом заявок: создание, выборки и
// условное принятие. Никаких ретраев внутри — ошибки хранилища уходят
// вызывающему как есть.
type RequestQueue struct {
	db *gorm.DB
}

func NewRequestQueue(db *gorm.DB) *RequestQueue {
	return &RequestQueue{db: db}
}

// Create вставляет новую заявку со статусом pending.
// createdByName сохраняется как дали: подстановка заглушки — забота вызывающего.
func (s *RequestQueue) Create(ctx context.Context, createdBy, createdByName string) (*model.ChatRequest, error) {
	if createdBy == "" {
		return nil, errors.New("create request: createdBy is empty")
	}
	r := &model.ChatRequest{
		ID:            uuid.NewString(),
		Status:        model.RequestStatusPending,
		CreatedBy:     createdBy,
		CreatedByName: createdByName,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

// ListAll возвращает все заявки, новые первыми.
func (s *RequestQueue) ListAll(ctx context.Context) ([]model.ChatRequest, error) {
	var items []model.ChatRequest
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return items, nil
}

// ListAcceptedBy возвращает заявки, принятые указанным специалистом
// (включая уже закрытые), новые первыми.
func (s *RequestQueue) ListAcceptedBy(ctx context.Context, specialistID uint64) ([]model.ChatRequest, error) {
	var items []model.ChatRequest
	err := s.db.WithContext(ctx).
		Where("accepted_by = ?", specialistID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list accepted requests: %w", err)
	}
	return items, nil
}

// Accept атомарно переводит заявку pending → accepted. Предварительное
// чтение даёт точную ошибку (нет заявки / уже принята), но гонку двух
// специалистов решает только условный UPDATE: статус проверяется сервером
// БД в том же выражении, что и запись.
func (s *RequestQueue) Accept(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error) {
	if err := ensureRequestID(requestID); err != nil {
		return nil, err
	}
	cur, err := s.getByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !cur.Status.CanTransitionTo(model.RequestStatusAccepted) {
		return nil, errs.ErrAlreadyClaimed
	}
	res := s.db.WithContext(ctx).
		Model(&model.ChatRequest{}).
		Where("id = ? AND status = ?", requestID, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      model.RequestStatusAccepted,
			"accepted_by": specialistID,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("accept request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// проиграли гонку: между чтением и UPDATE заявку принял другой
		return nil, errs.ErrAlreadyClaimed
	}
	return s.getByID(ctx, requestID)
}

// Close переводит заявку accepted → closed. Закрыть может только принявший
// её специалист; условие — тот же одиночный UPDATE, что и в Accept.
func (s *RequestQueue) Close(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error) {
	if err := ensureRequestID(requestID); err != nil {
		return nil, err
	}
	cur, err := s.getByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !cur.Status.CanTransitionTo(model.RequestStatusClosed) {
		return nil, errs.ErrNotClaimant
	}
	if cur.AcceptedBy == nil || *cur.AcceptedBy != specialistID {
		return nil, errs.ErrNotClaimant
	}
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&model.ChatRequest{}).
		Where("id = ? AND status = ? AND accepted_by = ?", requestID, model.RequestStatusAccepted, specialistID).
		Updates(map[string]interface{}{
			"status":    model.RequestStatusClosed,
			"closed_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("close request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrNotClaimant
	}
	return s.getByID(ctx, requestID)
}

// CountPending — количество заявок в статусе pending. Консультативное
// значение для бейджа, транзакционных гарантий не даёт.
func (s *RequestQueue) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.ChatRequest{}).
		Where("status = ?", model.RequestStatusPending).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return n, nil
}

// ensureRequestID отсекает синтаксически кривой id до обращения к БД:
// колонка id имеет тип uuid, и Postgres на такую строку ответил бы
// ошибкой приведения (22P02), а не пустой выборкой.
func ensureRequestID(requestID string) error {
	if _, err := uuid.Parse(requestID); err != nil {
		return errs.ErrRequestNotFound
	}
	return nil
}

func (s *RequestQueue) getByID(ctx context.Context, requestID string) (*model.ChatRequest, error) {
	var r model.ChatRequest
	if err := s.db.WithContext(ctx).First(&r, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}
