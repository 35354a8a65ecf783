// Package sweeper periodically removes vector namespaces that no longer
// belong to a live chat. Such orphans are left behind when a chat delete
// fails after its vectors were written or before its record was removed.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

// DefaultSchedule accepts cron descriptors; plain specs have seconds precision.
const DefaultSchedule = "@every 1h"

const runTimeout = 5 * time.Minute

type ChatLookup interface {
	GetChat(ctx context.Context, chatID string) (*store.Chat, error)
}

type Sweeper struct {
	cron     *cron.Cron
	schedule string
	vectors  vectorstore.Store
	chats    ChatLookup
	log      logging.Logger
}

func New(schedule string, vs vectorstore.Store, chats ChatLookup, log logging.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		vectors:  vs,
		chats:    chats,
		log:      log,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error(ctx, "orphan sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info(context.Background(), "orphan sweeper started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce deletes every namespace whose chat is missing or inactive and
// returns the deleted namespaces.
func (s *Sweeper) RunOnce(ctx context.Context) ([]string, error) {
	namespaces, err := s.vectors.Namespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}

	var swept []string
	for _, ns := range namespaces {
		chat, err := s.chats.GetChat(ctx, ns)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return swept, fmt.Errorf("look up chat %s: %w", ns, err)
		case chat.IsActive:
			continue
		}

		if err := s.vectors.Delete(ctx, ns); err != nil {
			return swept, fmt.Errorf("delete namespace %s: %w", ns, err)
		}
		swept = append(swept, ns)
	}

	if len(swept) > 0 {
		s.log.Info(ctx, "orphan namespaces removed", "count", len(swept))
	}
	return swept, nil
}
