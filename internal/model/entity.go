package model

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusClosed   RequestStatus = "closed"
)

// Valid сообщает, известен ли статус.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusClosed:
		return true
	}
	return false
}

// CanTransitionTo — допустимые переходы: pending → accepted → closed.
// Переходы односторонние, closed — терминальный статус.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return next == RequestStatusAccepted
	case RequestStatusAccepted:
		return next == RequestStatusClosed
	}
	return false
}

// ChatRequest — заявка пользователя на чат со специалистом.
// CreatedByName — снимок имени на момент создания, не пересчитывается.
type ChatRequest struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	Status        RequestStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedBy     string        `gorm:"index;not null" json:"created_by"`
	CreatedByName string        `gorm:"type:varchar(255);not null" json:"created_by_name"`
	AcceptedBy    *uint64       `gorm:"index" json:"accepted_by,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Specialist — запись каталога специалистов. Email хранится нормализованным
// (trim + lower case), поиск по нему — см. service.Directory.
type Specialist struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	UserID     string `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName   string `gorm:"column:fullname;type:varchar(255)" json:"fullname,omitempty"`
	Phone      string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email      string `gorm:"type:varchar(255);index;not null" json:"email"`
	Website    string `gorm:"type:varchar(255)" json:"website,omitempty"`
	About      string `gorm:"type:text" json:"about,omitempty"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`
	AvatarPath string `gorm:"type:text" json:"avatar_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
