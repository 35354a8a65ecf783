package api

import (
	"legaleagle.app/api/internal/entitlement"
	"legaleagle.app/api/internal/prompts"
	"legaleagle.app/api/internal/store"
)

type CreateChatRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	Title          string `json:"title" validate:"max=200"`
	PromptTemplate string `json:"prompt_template"`
}

type UpdateChatRequest struct {
	Title          *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	PromptTemplate *string `json:"prompt_template,omitempty"`
}

type ChatListResponse struct {
	Chats []store.Chat `json:"chats"`
	Total int          `json:"total"`
}

type ChatHistoryResponse struct {
	Chat     *store.Chat     `json:"chat"`
	Messages []store.Message `json:"messages"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type DocumentListResponse struct {
	Status         string           `json:"status"`
	ChatID         string           `json:"chat_id"`
	Documents      []store.Document `json:"documents"`
	TotalDocuments int              `json:"total_documents"`
	TotalVectors   int              `json:"total_vectors"`
}

type uploadForm struct {
	ChatID string `form:"chat_id" validate:"required"`
}

type UploadResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

type uploadTextForm struct {
	ChatID     string `form:"chat_id" validate:"required"`
	Text       string `form:"text" validate:"required"`
	SourceName string `form:"source_name" validate:"required,max=200"`
}

type UploadTextResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	SourceName string `json:"source_name"`
	Chunks     int    `json:"chunks"`
}

type AskRequest struct {
	ChatID     string `json:"chat_id" validate:"required"`
	Query      string `json:"query" validate:"required"`
	UseContext *bool  `json:"use_context,omitempty"`
}

type AskResponse struct {
	Answer    string `json:"answer"`
	Sources   []int  `json:"sources"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type searchParams struct {
	ChatID string `form:"chat_id" validate:"required"`
	Query  string `form:"query" validate:"required"`
	TopK   int    `form:"top_k" validate:"gte=1,lte=50"`
}

type TemplateListResponse struct {
	Templates []prompts.Template `json:"templates"`
	Total     int                `json:"total"`
}

type TemplateCategoryResponse struct {
	Category  string             `json:"category"`
	Templates []prompts.Template `json:"templates"`
	Total     int                `json:"total"`
}

type CreateOrderRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

type VerifyPaymentResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	IsPremium        bool              `json:"is_premium"`
	RemainingQueries entitlement.Quota `json:"remaining_queries"`
}

type PaymentHistoryResponse struct {
	Status   string          `json:"status"`
	Payments []store.Payment `json:"payments"`
	Total    int             `json:"total"`
}
