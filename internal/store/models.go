package store

import (
	"time"

	"legaleagle.app/api/internal/entitlement"
)

// DefaultChatTitle marks a chat that has not been titled yet.
const DefaultChatTitle = "New Chat"

type User struct {
	ID               string            `json:"user_id"`
	IsPremium        bool              `json:"is_premium"`
	ChatCount        int               `json:"chat_count"`
	DocumentCount    int               `json:"document_count"`
	QueryCount       int               `json:"query_count"`
	RemainingQueries entitlement.Quota `json:"remaining_queries"`
	TotalPayments    int               `json:"total_payments"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (u *User) Usage() entitlement.Usage {
	tier := entitlement.TierFree
	if u.IsPremium {
		tier = entitlement.TierPremium
	}
	return entitlement.Usage{
		Tier:          tier,
		ChatCount:     u.ChatCount,
		DocumentCount: u.DocumentCount,
		QueryCount:    u.QueryCount,
	}
}

type Chat struct {
	ID             string    `json:"id"` // also the vector namespace
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	PromptTemplate string    `json:"prompt_template"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChatUpdate holds the optional fields of a chat edit.
type ChatUpdate struct {
	Title          *string
	PromptTemplate *string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string         `json:"id"`
	ChatID    string         `json:"chat_id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Sources   []int          `json:"sources"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Document struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chat_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunks"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	OrderID     string        `json:"razorpay_order_id"`
	PaymentID   string        `json:"razorpay_payment_id,omitempty"`
	Signature   string        `json:"-"`
	Amount      int64         `json:"amount"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	ErrorDetail string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
