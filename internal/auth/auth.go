package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/safespace/request-service/internal/errs"
	"github.com/safespace/request-service/internal/model"
	"github.com/safespace/request-service/internal/service"
)

// Ключи gin-контекста для проверенной идентичности и записи каталога.
const (
	CtxKeyIdentity   = "auth.identity"
	CtxKeySpecialist = "auth.specialist"
)

// Identity — проверенная личность вызывающего. Заполняется ровно один раз
// на запрос в Required; дальше по коду ходит явно, без глобального состояния.
type Identity struct {
	UserID string
	Email  string
}

// Claims — полезная нагрузка токена identity provider'а:
// subject = стабильный id пользователя, email — его адрес.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier проверяет подпись и срок действия Bearer-токена (HS256, общий секрет).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify разбирает токен и возвращает идентичность.
func (v *Verifier) Verify(token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, errors.New("verify token: subject is empty")
	}
	return &Identity{UserID: claims.Subject, Email: service.NormalizeEmail(claims.Email)}, nil
}

// Required — middleware: валидирует Bearer-токен и кладёт Identity в контекст.
func Required(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		ident, err := v.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxKeyIdentity, ident)
		c.Next()
	}
}

// SpecialistRequired — middleware для маршрутов специалистов: резолвит запись
// каталога по email вызывающего и кладёт её в контекст. Нет записи — 403.
func SpecialistRequired(dir service.DirectoryServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		sp, err := dir.GetByEmail(c.Request.Context(), ident.Email)
		if err != nil {
			if errors.Is(err, errs.ErrSpecialistNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "specialist access required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve specialist"})
			return
		}
		c.Set(CtxKeySpecialist, sp)
		c.Next()
	}
}

// IdentityFrom достаёт идентичность, положенную Required.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(CtxKeyIdentity)
	if !ok {
		return nil, false
	}
	ident, ok := v.(*Identity)
	return ident, ok
}

// SpecialistFrom достаёт запись каталога, положенную SpecialistRequired.
func SpecialistFrom(c *gin.Context) (*model.Specialist, bool) {
	v, ok := c.Get(CtxKeySpecialist)
	if !ok {
		return nil, false
	}
	sp, ok := v.(*model.Specialist)
	return sp, ok
}
