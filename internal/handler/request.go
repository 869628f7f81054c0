package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safespace/request-service/internal/auth"
	"github.com/safespace/request-service/internal/badge"
	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/kafka"
	"github.com/safespace/request-service/internal/model"
	"github.com/safespace/request-service/internal/service"
)

type RequestHandler struct {
	queue    service.RequestQueueServicer
	producer kafka.RequestEventProducer
	badge    *badge.Counter
}

func NewRequestHandler(queue service.RequestQueueServicer, producer kafka.RequestEventProducer, counter *badge.Counter) *RequestHandler {
	return &RequestHandler{queue: queue, producer: producer, badge: counter}
}

type createRequestBody struct {
	CreatedByName string `json:"created_by_name"`
}

// Create оформляет новую заявку от имени вызывающего. created_by берётся
// только из проверенной идентичности; пустое имя подменяется email'ом
// до обращения к очереди — сама очередь хранит что дали.
func (h *RequestHandler) Create(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	name := strings.TrimSpace(body.CreatedByName)
	if name == "" {
		name = ident.Email
	}
	r, err := h.queue.Create(c.Request.Context(), ident.UserID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	h.publishAsync("request.created", r)
	h.badge.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, r)
}

// List отдаёт всю очередь, новые первыми. Маршрут доступен только
// специалистам (см. router).
func (h *RequestHandler) List(c *gin.Context) {
	items, err := h.queue.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requests": items,
		"total":    len(items),
	})
}

// ListAccepted — заявки, принятые вызывающим специалистом (включая закрытые).
func (h *RequestHandler) ListAccepted(c *gin.Context) {
	sp, ok := auth.SpecialistFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "specialist access required"})
		return
	}
	items, err := h.queue.ListAcceptedBy(c.Request.Context(), sp.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requests": items,
		"total":    len(items),
	})
}

// CountPending — значение для бейджа уведомлений.
func (h *RequestHandler) CountPending(c *gin.Context) {
	n, err := h.badge.Get(c.Request.Context(), h.queue.CountPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": n})
}

// Accept — попытка принять заявку. Проигранная гонка — 409: клиенту следует
// обновить список, кнопка принятия исчезнет.
func (h *RequestHandler) Accept(c *gin.Context) {
	sp, ok := auth.SpecialistFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "specialist access required"})
		return
	}
	if !sp.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "specialist is not verified"})
		return
	}
	r, err := h.queue.Accept(c.Request.Context(), c.Param("id"), sp.ID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, errs.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "request already claimed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	h.publishAsync("request.accepted", r)
	h.badge.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, r)
}

// Close закрывает принятую вызывающим заявку.
func (h *RequestHandler) Close(c *gin.Context) {
	sp, ok := auth.SpecialistFrom(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "specialist access required"})
		return
	}
	r, err := h.queue.Close(c.Request.Context(), c.Param("id"), sp.ID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, errs.ErrNotClaimant):
			c.JSON(http.StatusForbidden, gin.H{"error": "request is not claimed by caller"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	h.publishAsync("request.closed", r)
	c.JSON(http.StatusOK, r)
}

// publishAsync: событие должно уйти даже при отмене запроса, но с таймаутом.
func (h *RequestHandler) publishAsync(event string, r *model.ChatRequest) {
	if h.producer == nil {
		return
	}
	payload := kafka.EventPayload(r)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.producer.ProduceRequestEvent(ctx, event, payload)
	}()
}
