package study

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/pkg/validator"
)

// NewCardInput describes a card authored by the learner.
type NewCardInput struct {
	Owner  string `json:"owner" validate:"required"`
	Deck   string `json:"deck" validate:"max=200"`
	Prompt string `json:"prompt" validate:"required"`
	Answer string `json:"answer" validate:"required"`
}

// CreateCard adds a manual card in box 1, due immediately.
func (s *Service) CreateCard(ctx context.Context, in NewCardInput) (domain.Card, error) {
	in.Deck = strings.TrimSpace(in.Deck)
	in.Prompt = strings.TrimSpace(in.Prompt)
	in.Answer = strings.TrimSpace(in.Answer)
	if err := validator.ValidateStruct(in); err != nil {
		return domain.Card{}, err
	}

	now := s.now()
	card := domain.Card{
		Owner:     in.Owner,
		Deck:      in.Deck,
		Prompt:    in.Prompt,
		Answer:    in.Answer,
		Box:       domain.MinBox,
		Due:       now,
		CreatedAt: now,
		Origin:    domain.OriginManual,
	}

	var delta domain.StatsDelta
	delta.AddCard(card.Box)

	var created domain.Card
	err := s.commit(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.CreateCard(ctx, card)
		if err != nil {
			return fmt.Errorf("create card: %w", err)
		}
		return s.stats.ApplyDelta(ctx, in.Owner, delta)
	})
	if err != nil {
		return domain.Card{}, err
	}

	s.log.InfoContext(ctx, "card created", slog.String("owner", created.Owner), slog.String("card_id", created.ID))
	return created, nil
}
