package core

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"legaleagle.app/api/internal/archive"
	"legaleagle.app/api/internal/entitlement"
	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/prompts"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

const (
	DefaultChatListLimit = 50
	maxChatMessages      = 1000
	autoTitleRunes       = 50

	ApologyAnswer = "I encountered an error processing your request. Please try again."
)

// ChatService owns the chat lifecycle: creation under quota, document
// uploads, questions, and the cascading delete.
type ChatService struct {
	store   *store.SQLiteStore
	vectors vectorstore.Store
	quota   *entitlement.Engine
	ingest  *IngestService
	rag     *RAGService
	archive archive.Archiver
	log     logging.Logger
}

func NewChatService(
	db *store.SQLiteStore,
	vs vectorstore.Store,
	quota *entitlement.Engine,
	ingest *IngestService,
	rag *RAGService,
	arch archive.Archiver,
	log logging.Logger,
) *ChatService {
	if arch == nil {
		arch = archive.Nop{}
	}
	return &ChatService{
		store:   db,
		vectors: vs,
		quota:   quota,
		ingest:  ingest,
		rag:     rag,
		archive: arch,
		log:     log,
	}
}

type CreateChatInput struct {
	UserID         string
	Title          string
	PromptTemplate string
}

func (s *ChatService) CreateChat(ctx context.Context, in CreateChatInput) (*store.Chat, error) {
	tmpl := in.PromptTemplate
	if tmpl == "" {
		tmpl = string(prompts.Default)
	}
	if !prompts.Valid(tmpl) {
		return nil, invalid("prompt_template", "Invalid prompt template: %s", tmpl)
	}

	if _, err := s.quota.Require(ctx, in.UserID, entitlement.ActionCreateChat); err != nil {
		return nil, err
	}

	chat := &store.Chat{UserID: in.UserID, Title: in.Title, PromptTemplate: tmpl}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	s.record(ctx, in.UserID, entitlement.ActionCreateChat)

	s.log.Info(ctx, "chat created", "chat_id", chat.ID, "user_id", in.UserID, "template", tmpl)
	return chat, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID string, limit int) ([]store.Chat, error) {
	if limit <= 0 {
		limit = DefaultChatListLimit
	}
	return s.store.ListChats(ctx, userID, limit)
}

func (s *ChatService) getChat(ctx context.Context, chatID string) (*store.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// GetChat returns the chat with its messages in creation order.
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*store.Chat, []store.Message, error) {
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.ListMessages(ctx, chatID, maxChatMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get messages for chat: %w", err)
	}
	return chat, msgs, nil
}

func (s *ChatService) UpdateChat(ctx context.Context, chatID string, u store.ChatUpdate) (*store.Chat, error) {
	if u.PromptTemplate != nil && !prompts.Valid(*u.PromptTemplate) {
		return nil, invalid("prompt_template", "Invalid prompt template: %s", *u.PromptTemplate)
	}
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if u.Title == nil && u.PromptTemplate == nil {
		return chat, nil
	}
	updated, err := s.store.UpdateChat(ctx, chatID, u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	return updated, err
}

// DeleteChat removes messages and documents, then the vector namespace, then
// the chat record. If the namespace cannot be deleted the chat record is
// kept so the delete can be retried.
func (s *ChatService) DeleteChat(ctx context.Context, chatID string) error {
	if _, err := s.getChat(ctx, chatID); err != nil {
		return err
	}

	var msgs, docs int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx *store.SQLiteStore) error {
		var err error
		if msgs, err = tx.DeleteMessagesByChat(ctx, chatID); err != nil {
			return err
		}
		docs, err = tx.DeleteDocumentsByChat(ctx, chatID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete chat records: %w", err)
	}

	if err := s.vectors.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete vector namespace: %w", err)
	}
	if err := s.archive.DeletePrefix(ctx, archive.ChatPrefix(chatID)); err != nil {
		s.log.Warn(ctx, "failed to delete archived uploads", "chat_id", chatID, "error", err)
	}

	if err := s.store.DeleteChat(ctx, chatID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	s.log.Info(ctx, "chat deleted", "chat_id", chatID, "messages", msgs, "documents", docs)
	return nil
}

// Upload ingests a document into the chat's namespace under the owner's
// document quota. The Document record is only written once every chunk is
// stored.
func (s *ChatService) Upload(ctx context.Context, chatID string, src Source) (*store.Document, error) {
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.quota.Require(ctx, chat.UserID, entitlement.ActionUploadDocument); err != nil {
		return nil, err
	}
	if err := s.ingest.Validate(src); err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	chunks, err := s.ingest.Ingest(ctx, src, chatID, docID)
	if err != nil {
		return nil, err
	}

	doc := &store.Document{ID: docID, ChatID: chatID, Filename: src.Name, ChunkCount: chunks, SizeBytes: src.Size()}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if derr := s.vectors.DeleteDocument(ctx, chatID, docID); derr != nil {
			s.log.Error(ctx, "failed to remove vectors of unrecorded document",
				"chat_id", chatID, "document_id", docID, "error", derr)
		}
		return nil, &IngestionError{Source: src.Name, Err: err}
	}
	s.record(ctx, chat.UserID, entitlement.ActionUploadDocument)

	body, contentType := []byte(src.Text), "text/plain; charset=utf-8"
	if src.IsPDF() {
		body, contentType = src.PDF, "application/pdf"
	}
	if err := s.archive.Put(ctx, archive.Key(chatID, docID, src.Name), body, contentType); err != nil {
		s.log.Warn(ctx, "failed to archive upload", "chat_id", chatID, "document_id", docID, "error", err)
	}
	return doc, nil
}

type DocumentListing struct {
	Documents    []store.Document
	TotalVectors int
}

func (s *ChatService) ListDocuments(ctx context.Context, chatID string) (*DocumentListing, error) {
	if _, err := s.getChat(ctx, chatID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, chatID)
	if err != nil {
		return nil, err
	}
	stats, err := s.vectors.Stats(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to read namespace stats: %w", err)
	}
	return &DocumentListing{Documents: docs, TotalVectors: stats.VectorCount}, nil
}

// DeleteDocument removes one document's vectors and its record. The
// owner's upload count is not refunded.
func (s *ChatService) DeleteDocument(ctx context.Context, chatID, documentID string) error {
	if _, err := s.getChat(ctx, chatID); err != nil {
		return err
	}
	if _, err := s.store.GetDocument(ctx, chatID, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if err := s.vectors.DeleteDocument(ctx, chatID, documentID); err != nil {
		return fmt.Errorf("failed to delete document vectors: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, chatID, documentID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := s.archive.DeletePrefix(ctx, archive.ChatPrefix(chatID)+documentID+"/"); err != nil {
		s.log.Warn(ctx, "failed to delete archived upload", "chat_id", chatID, "document_id", documentID, "error", err)
	}
	return nil
}

type AskInput struct {
	ChatID     string
	Query      string
	UseContext bool
}

type AskResult struct {
	ChatID    string
	MessageID string
	Answer    string
	Sources   []int
}

// Ask answers a question in a chat and persists both turns. When retrieval
// fails an apology is still persisted in the chat, with the error in its
// metadata, and the error is returned to the caller.
func (s *ChatService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	chat, err := s.getChat(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.quota.Require(ctx, chat.UserID, entitlement.ActionQuery); err != nil {
		return nil, err
	}

	var history []store.Message
	if in.UseContext {
		if history, err = s.store.RecentMessages(ctx, in.ChatID, MaxHistoryTurns); err != nil {
			return nil, fmt.Errorf("failed to load chat history: %w", err)
		}
	}

	if err := s.addMessage(ctx, chat, &store.Message{ChatID: in.ChatID, Role: store.RoleUser, Content: in.Query}); err != nil {
		return nil, err
	}

	answer, err := s.rag.Answer(ctx, AnswerRequest{
		Query:      in.Query,
		Namespace:  in.ChatID,
		TemplateID: chat.PromptTemplate,
		History:    history,
	})
	if err != nil {
		s.log.Error(ctx, "query failed", "chat_id", in.ChatID, "error", err)
		apology := &store.Message{
			ChatID:   in.ChatID,
			Role:     store.RoleAssistant,
			Content:  ApologyAnswer,
			Metadata: map[string]any{"error": err.Error()},
		}
		if merr := s.addMessage(ctx, chat, apology); merr != nil {
			s.log.Error(ctx, "failed to store apology message", "chat_id", in.ChatID, "error", merr)
		}
		return nil, err
	}
	s.record(ctx, chat.UserID, entitlement.ActionQuery)

	reply := &store.Message{ChatID: in.ChatID, Role: store.RoleAssistant, Content: answer.Text, Sources: answer.Sources}
	if err := s.addMessage(ctx, chat, reply); err != nil {
		return nil, err
	}
	return &AskResult{ChatID: in.ChatID, MessageID: reply.ID, Answer: answer.Text, Sources: answer.Sources}, nil
}

// addMessage stores the message, bumps the chat and titles an untitled chat
// from its first user message.
func (s *ChatService) addMessage(ctx context.Context, chat *store.Chat, m *store.Message) error {
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return fmt.Errorf("failed to store %s message: %w", m.Role, err)
	}

	if m.Role == store.RoleUser && chat.Title == store.DefaultChatTitle {
		title := AutoTitle(m.Content)
		if _, err := s.store.UpdateChat(ctx, chat.ID, store.ChatUpdate{Title: &title}); err != nil {
			s.log.Warn(ctx, "failed to set chat title", "chat_id", chat.ID, "error", err)
		} else {
			chat.Title = title
		}
		return nil
	}
	if err := s.store.TouchChat(ctx, chat.ID); err != nil {
		s.log.Warn(ctx, "failed to touch chat", "chat_id", chat.ID, "error", err)
	}
	return nil
}

// AutoTitle is the first 50 characters of content, with "..." appended when
// it was cut.
func AutoTitle(content string) string {
	if utf8.RuneCountInString(content) <= autoTitleRunes {
		return content
	}
	return string([]rune(content)[:autoTitleRunes]) + "..."
}

func (s *ChatService) Search(ctx context.Context, chatID, query string, k int) ([]SearchResult, error) {
	if _, err := s.getChat(ctx, chatID); err != nil {
		return nil, err
	}
	return s.rag.SimilaritySearch(ctx, query, chatID, k)
}

func (s *ChatService) UserStatus(ctx context.Context, userID string) (entitlement.Decision, error) {
	return s.quota.Check(ctx, userID)
}

// record counts a successful operation. The operation already happened, so
// a failure here is logged rather than returned.
func (s *ChatService) record(ctx context.Context, userID string, a entitlement.Action) {
	if err := s.quota.Record(ctx, userID, a); err != nil {
		s.log.Error(ctx, "failed to record usage", "user_id", userID, "action", a, "error", err)
	}
}
