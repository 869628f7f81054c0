package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safespace/request-service/internal/auth"
	"github.com/safespace/request-service/internal/badge"
	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/handler"
	"github.com/safespace/request-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	createFn func(ctx context.Context, createdBy, createdByName string) (*model.ChatRequest, error)
	acceptFn func(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error)
	closeFn  func(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error)
	listAll  []model.ChatRequest
	accepted []model.ChatRequest
	pending  int64
}

func (f *fakeQueue) Create(ctx context.Context, createdBy, createdByName string) (*model.ChatRequest, error) {
	return f.createFn(ctx, createdBy, createdByName)
}

func (f *fakeQueue) ListAll(context.Context) ([]model.ChatRequest, error) {
	return f.listAll, nil
}

func (f *fakeQueue) ListAcceptedBy(context.Context, uint64) ([]model.ChatRequest, error) {
	return f.accepted, nil
}

func (f *fakeQueue) Accept(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error) {
	return f.acceptFn(ctx, requestID, specialistID)
}

func (f *fakeQueue) Close(ctx context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error) {
	return f.closeFn(ctx, requestID, specialistID)
}

func (f *fakeQueue) CountPending(context.Context) (int64, error) {
	return f.pending, nil
}

func withIdentity(ident *auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set(auth.CtxKeyIdentity, ident) }
}

func withSpecialist(sp *model.Specialist) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set(auth.CtxKeySpecialist, sp) }
}

func newRequestRouter(q *fakeQueue, ident *auth.Identity, sp *model.Specialist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewRequestHandler(q, nil, badge.NewCounter(nil, 0))
	r := gin.New()
	g := r.Group("", withIdentity(ident))
	g.POST("/requests", h.Create)
	if sp != nil {
		s := g.Group("", withSpecialist(sp))
		s.GET("/requests", h.List)
		s.GET("/requests/accepted", h.ListAccepted)
		s.GET("/requests/pending/count", h.CountPending)
		s.POST("/requests/:id/accept", h.Accept)
		s.POST("/requests/:id/close", h.Close)
	}
	return r
}

func TestRequestHandlerCreate(t *testing.T) {
	ident := &auth.Identity{UserID: "user-1", Email: "alice@example.com"}

	tests := []struct {
		name     string
		body     string
		wantName string
	}{
		{name: "with name", body: `{"created_by_name":"Alice"}`, wantName: "Alice"},
		{name: "empty name falls back to email", body: `{"created_by_name":"  "}`, wantName: "alice@example.com"},
		{name: "no body falls back to email", body: "", wantName: "alice@example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &fakeQueue{
				createFn: func(_ context.Context, createdBy, createdByName string) (*model.ChatRequest, error) {
					assert.Equal(t, "user-1", createdBy)
					assert.Equal(t, tc.wantName, createdByName)
					return &model.ChatRequest{
						ID:            "r1",
						Status:        model.RequestStatusPending,
						CreatedBy:     createdBy,
						CreatedByName: createdByName,
						CreatedAt:     time.Now(),
					}, nil
				},
			}
			r := newRequestRouter(q, ident, nil)

			req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			var got model.ChatRequest
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, model.RequestStatusPending, got.Status)
			assert.Equal(t, tc.wantName, got.CreatedByName)
		})
	}
}

func TestRequestHandlerAccept(t *testing.T) {
	ident := &auth.Identity{UserID: "user-spec", Email: "spec@example.com"}
	verified := &model.Specialist{ID: 7, UserID: "user-spec", Email: "spec@example.com", IsVerified: true}
	unverified := &model.Specialist{ID: 8, UserID: "user-spec2", Email: "spec2@example.com"}

	sid := uint64(7)
	okResult := &model.ChatRequest{ID: "r1", Status: model.RequestStatusAccepted, AcceptedBy: &sid}

	tests := []struct {
		name      string
		sp        *model.Specialist
		acceptErr error
		want      int
	}{
		{name: "success", sp: verified, want: http.StatusOK},
		{name: "already claimed", sp: verified, acceptErr: errs.ErrAlreadyClaimed, want: http.StatusConflict},
		{name: "not found", sp: verified, acceptErr: errs.ErrRequestNotFound, want: http.StatusNotFound},
		{name: "unverified specialist", sp: unverified, want: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &fakeQueue{
				acceptFn: func(_ context.Context, requestID string, specialistID uint64) (*model.ChatRequest, error) {
					assert.Equal(t, "r1", requestID)
					assert.Equal(t, tc.sp.ID, specialistID)
					if tc.acceptErr != nil {
						return nil, tc.acceptErr
					}
					return okResult, nil
				},
			}
			r := newRequestRouter(q, ident, tc.sp)

			req := httptest.NewRequest(http.MethodPost, "/requests/r1/accept", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestRequestHandlerClose(t *testing.T) {
	ident := &auth.Identity{UserID: "user-spec", Email: "spec@example.com"}
	sp := &model.Specialist{ID: 7, UserID: "user-spec", Email: "spec@example.com", IsVerified: true}

	tests := []struct {
		name     string
		closeErr error
		want     int
	}{
		{name: "success", want: http.StatusOK},
		{name: "not claimant", closeErr: errs.ErrNotClaimant, want: http.StatusForbidden},
		{name: "not found", closeErr: errs.ErrRequestNotFound, want: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &fakeQueue{
				closeFn: func(context.Context, string, uint64) (*model.ChatRequest, error) {
					if tc.closeErr != nil {
						return nil, tc.closeErr
					}
					now := time.Now()
					sid := sp.ID
					return &model.ChatRequest{ID: "r1", Status: model.RequestStatusClosed, AcceptedBy: &sid, ClosedAt: &now}, nil
				},
			}
			r := newRequestRouter(q, ident, sp)

			req := httptest.NewRequest(http.MethodPost, "/requests/r1/close", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestRequestHandlerListAndCount(t *testing.T) {
	ident := &auth.Identity{UserID: "user-spec", Email: "spec@example.com"}
	sp := &model.Specialist{ID: 7, UserID: "user-spec", Email: "spec@example.com"}
	sid := sp.ID
	q := &fakeQueue{
		listAll: []model.ChatRequest{
			{ID: "r2", Status: model.RequestStatusPending},
			{ID: "r1", Status: model.RequestStatusAccepted, AcceptedBy: &sid},
		},
		accepted: []model.ChatRequest{
			{ID: "r1", Status: model.RequestStatusAccepted, AcceptedBy: &sid},
		},
		pending: 5,
	}
	r := newRequestRouter(q, ident, sp)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Requests []model.ChatRequest `json:"requests"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 2, listResp.Total)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests/accepted", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Total)
	assert.Equal(t, "r1", listResp.Requests[0].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests/pending/count", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var countResp struct {
		Pending int64 `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &countResp))
	assert.Equal(t, int64(5), countResp.Pending)
}
