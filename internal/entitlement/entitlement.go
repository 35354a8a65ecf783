// Package entitlement decides what a user may do given their plan tier and
// usage counters, and records usage once a gated operation has succeeded.
//
// Limits are soft: Check and the later Record* call are separate store round
// trips, so concurrent requests can each pass a check before either records
// its usage. The overrun is bounded by the number of concurrent requests.
package entitlement

import (
	"context"
	"fmt"
)

type Tier int

const (
	TierFree Tier = iota
	TierPremium
)

func (t Tier) String() string {
	if t == TierPremium {
		return "premium"
	}
	return "free"
}

type Action string

const (
	ActionCreateChat     Action = "create_chat"
	ActionUploadDocument Action = "upload_document"
	ActionQuery          Action = "query"
)

// Usage is the persisted state a decision is computed from.
type Usage struct {
	Tier          Tier
	ChatCount     int
	DocumentCount int
	QueryCount    int
}

// Limits bound free-tier usage.
type Limits struct {
	Chats     int
	Documents int
}

func DefaultLimits() Limits {
	return Limits{Chats: 2, Documents: 2}
}

type Decision struct {
	UserID            string `json:"user_id"`
	IsPremium         bool   `json:"is_premium"`
	CanCreateChat     bool   `json:"can_create_chat"`
	CanUploadDocument bool   `json:"can_upload_document"`
	CanQuery          bool   `json:"can_query"`
	ChatCount         int    `json:"chat_count"`
	DocumentCount     int    `json:"document_count"`
	RemainingQueries  Quota  `json:"remaining_queries"`
	ChatLimit         Quota  `json:"chat_limit"`
	DocumentLimit     Quota  `json:"document_limit"`
	Message           string `json:"message"`
}

// Allows reports whether the decision permits the action.
func (d Decision) Allows(a Action) bool {
	switch a {
	case ActionCreateChat:
		return d.CanCreateChat
	case ActionUploadDocument:
		return d.CanUploadDocument
	case ActionQuery:
		return d.CanQuery
	}
	return false
}

// Decide is the pure decision function. Free users may always query inside
// chats they already own; the free tier only bounds chat creation and uploads.
func Decide(userID string, u Usage, l Limits) Decision {
	if u.Tier == TierPremium {
		return Decision{
			UserID:            userID,
			IsPremium:         true,
			CanCreateChat:     true,
			CanUploadDocument: true,
			CanQuery:          true,
			ChatCount:         u.ChatCount,
			DocumentCount:     u.DocumentCount,
			RemainingQueries:  Unlimited(),
			ChatLimit:         Unlimited(),
			DocumentLimit:     Unlimited(),
			Message:           "Premium user with unlimited access",
		}
	}

	chatLimit := Limited(l.Chats)
	docLimit := Limited(l.Documents)
	return Decision{
		UserID:            userID,
		CanCreateChat:     chatLimit.Allows(u.ChatCount),
		CanUploadDocument: docLimit.Allows(u.DocumentCount),
		CanQuery:          true,
		ChatCount:         u.ChatCount,
		DocumentCount:     u.DocumentCount,
		RemainingQueries:  Limited(0),
		ChatLimit:         chatLimit,
		DocumentLimit:     docLimit,
		Message:           "Free tier limits apply",
	}
}

// DeniedError is returned when a decision does not permit the action.
type DeniedError struct {
	Action   Action
	Decision Decision
}

func (e *DeniedError) Error() string {
	switch e.Action {
	case ActionCreateChat:
		return fmt.Sprintf("Free tier limit reached. You can only create %s chats. Please upgrade to premium.", e.Decision.ChatLimit)
	case ActionUploadDocument:
		return fmt.Sprintf("Free tier limit reached. You can only upload %s documents. Please upgrade to premium.", e.Decision.DocumentLimit)
	default:
		return "Query limit reached. Please upgrade to premium to continue."
	}
}

// Counters is the persistence the engine needs. Each increment must be a
// single atomic update.
type Counters interface {
	Usage(ctx context.Context, userID string) (Usage, error)
	IncrementChatCount(ctx context.Context, userID string) error
	IncrementDocumentCount(ctx context.Context, userID string) error
	IncrementQueryCount(ctx context.Context, userID string) error
}

type Engine struct {
	counters Counters
	limits   Limits
}

func NewEngine(c Counters, l Limits) *Engine {
	return &Engine{counters: c, limits: l}
}

func (e *Engine) Limits() Limits { return e.limits }

// Check loads (or lazily creates) the user's usage and decides.
func (e *Engine) Check(ctx context.Context, userID string) (Decision, error) {
	u, err := e.counters.Usage(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("load usage for %s: %w", userID, err)
	}
	return Decide(userID, u, e.limits), nil
}

// Require returns a *DeniedError when the action is not permitted.
func (e *Engine) Require(ctx context.Context, userID string, a Action) (Decision, error) {
	d, err := e.Check(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if !d.Allows(a) {
		return d, &DeniedError{Action: a, Decision: d}
	}
	return d, nil
}

// Record counts one successful use of the action.
func (e *Engine) Record(ctx context.Context, userID string, a Action) error {
	var err error
	switch a {
	case ActionCreateChat:
		err = e.counters.IncrementChatCount(ctx, userID)
	case ActionUploadDocument:
		err = e.counters.IncrementDocumentCount(ctx, userID)
	case ActionQuery:
		err = e.counters.IncrementQueryCount(ctx, userID)
	default:
		return fmt.Errorf("unknown action %q", a)
	}
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", a, userID, err)
	}
	return nil
}
