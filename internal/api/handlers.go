package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"legaleagle.app/api/internal/core"
	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/prompts"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

const (
	ServiceName    = "LegalEagle API"
	ServiceVersion = "1.0.0"

	defaultSourceName = "Pasted Text"
	// multipart framing on top of the file itself
	uploadOverhead = 1 << 20
	// formMemory is how much of a multipart body is held in memory before
	// spilling to temp files.
	formMemory = 32 << 20
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type APIHandler struct {
	chats     *core.ChatService
	payments  *core.PaymentService
	db        Pinger
	vectors   vectorstore.Store
	maxUpload int64
	validate  *validator.Validate
	log       logging.Logger
}

func NewAPIHandler(
	cs *core.ChatService,
	ps *core.PaymentService,
	db Pinger,
	vs vectorstore.Store,
	maxUpload int64,
	log logging.Logger,
) *APIHandler {
	return &APIHandler{
		chats:     cs,
		payments:  ps,
		db:        db,
		vectors:   vs,
		maxUpload: maxUpload,
		validate:  newValidator(),
		log:       log,
	}
}

// newValidator reports fields by their wire names, so clients read
// "chat_id is required" rather than the Go field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// decode reads a JSON body into dst and validates it. It writes the 400
// itself and reports whether the handler should continue.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return h.check(w, dst)
}

func (h *APIHandler) check(w http.ResponseWriter, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationDetail(err))
		return false
	}
	return true
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, detail := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), fallback, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, detail)
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":       "healthy",
		"database":     "connected",
		"vector_store": "connected",
		"llm":          "ready",
	}
	status := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Warn(r.Context(), "database health check failed", "error", err)
		resp["status"], resp["database"] = "unhealthy", "disconnected"
		status = http.StatusServiceUnavailable
	}
	if _, err := h.vectors.Stats(r.Context(), "health-check"); err != nil {
		h.log.Warn(r.Context(), "vector store health check failed", "error", err)
		resp["status"], resp["vector_store"] = "unhealthy", "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	chat, err := h.chats.CreateChat(r.Context(), core.CreateChatInput{
		UserID:         req.UserID,
		Title:          req.Title,
		PromptTemplate: req.PromptTemplate,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	limit := core.DefaultChatListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	chats, err := h.chats.ListChats(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, r, err, "Failed to list chats")
		return
	}
	writeJSON(w, http.StatusOK, ChatListResponse{Chats: chats, Total: len(chats)})
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, messages, err := h.chats.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		h.fail(w, r, err, "Failed to get chat")
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Chat: chat, Messages: messages})
}

func (h *APIHandler) UpdateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	chat, err := h.chats.UpdateChat(r.Context(), chi.URLParam(r, "chatID"), store.ChatUpdate{
		Title:          req.Title,
		PromptTemplate: req.PromptTemplate,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to update chat")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.chats.DeleteChat(r.Context(), chatID); err != nil {
		h.fail(w, r, err, "Failed to delete chat")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Chat %s and all associated data deleted successfully", chatID),
	})
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	listing, err := h.chats.ListDocuments(r.Context(), chatID)
	if err != nil {
		h.fail(w, r, err, "Failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{
		Status:         "success",
		ChatID:         chatID,
		Documents:      listing.Documents,
		TotalDocuments: len(listing.Documents),
		TotalVectors:   listing.TotalVectors,
	})
}

func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	if err := h.chats.DeleteDocument(r.Context(), chi.URLParam(r, "chatID"), documentID); err != nil {
		h.fail(w, r, err, "Failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Document %s deleted successfully", documentID),
	})
}

func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+uploadOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxUpload/(1024*1024)))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := uploadForm{ChatID: r.FormValue("chat_id")}
	if !h.check(w, form) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file: "+err.Error())
		return
	}

	doc, err := h.chats.Upload(r.Context(), form.ChatID, core.Source{Name: header.Filename, PDF: data})
	if err != nil {
		h.fail(w, r, err, "Error processing document")
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Status:     "success",
		Message:    fmt.Sprintf("Document '%s' processed successfully", doc.Filename),
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Chunks:     doc.ChunkCount,
	})
}

func (h *APIHandler) UploadTextHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+uploadOverhead)
	// Accept both multipart and urlencoded bodies.
	err := r.ParseMultipartForm(formMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	form := uploadTextForm{
		ChatID:     r.FormValue("chat_id"),
		Text:       r.FormValue("text"),
		SourceName: r.FormValue("source_name"),
	}
	if form.SourceName == "" {
		form.SourceName = defaultSourceName
	}
	if !h.check(w, form) {
		return
	}

	doc, err := h.chats.Upload(r.Context(), form.ChatID, core.Source{Name: form.SourceName, Text: form.Text})
	if err != nil {
		h.fail(w, r, err, "Error processing text")
		return
	}
	writeJSON(w, http.StatusOK, UploadTextResponse{
		Status:     "success",
		Message:    fmt.Sprintf("Text '%s' processed successfully", doc.Filename),
		DocumentID: doc.ID,
		SourceName: doc.Filename,
		Chunks:     doc.ChunkCount,
	})
}

func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !h.decode(w, r, &req) {
		return
	}
	useContext := req.UseContext == nil || *req.UseContext

	res, err := h.chats.Ask(r.Context(), core.AskInput{ChatID: req.ChatID, Query: req.Query, UseContext: useContext})
	if err != nil {
		h.fail(w, r, err, "Error processing query")
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:    res.Answer,
		Sources:   res.Sources,
		ChatID:    res.ChatID,
		MessageID: res.MessageID,
		Status:    "success",
	})
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := searchParams{ChatID: q.Get("chat_id"), Query: q.Get("query"), TopK: core.DefaultTopK}
	if s := q.Get("top_k"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "top_k must be an integer")
			return
		}
		params.TopK = n
	}
	if !h.check(w, params) {
		return
	}

	results, err := h.chats.Search(r.Context(), params.ChatID, params.Query, params.TopK)
	if err != nil {
		h.fail(w, r, err, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": results,
		"total":   len(results),
	})
}

func (h *APIHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	all := prompts.All()
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: all, Total: len(all)})
}

func (h *APIHandler) GetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	t, ok := prompts.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Template '%s' not found", id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *APIHandler) TemplatesByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	templates := prompts.ByCategory(category)
	writeJSON(w, http.StatusOK, TemplateCategoryResponse{Category: category, Templates: templates, Total: len(templates)})
}

func (h *APIHandler) UserStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	d, err := h.chats.UserStatus(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to load user status")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *APIHandler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.payments.CreateOrder(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, r, err, "Failed to create order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *APIHandler) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.payments.Verify(r.Context(), core.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		UserID:    req.UserID,
	})
	if err != nil {
		h.fail(w, r, err, "Payment verification failed")
		return
	}
	writeJSON(w, http.StatusOK, VerifyPaymentResponse{
		Status:           "success",
		Message:          "Payment verified successfully. You are now a premium user with unlimited queries!",
		IsPremium:        user.IsPremium,
		RemainingQueries: user.RemainingQueries,
	})
}

func (h *APIHandler) PaymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	payments, err := h.payments.History(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "Failed to load payment history")
		return
	}
	writeJSON(w, http.StatusOK, PaymentHistoryResponse{Status: "success", Payments: payments, Total: len(payments)})
}
