// Package question holds the owner-scoped prompt operations behind the pages
// and the random-card endpoint.
package question

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/dukerupert/promptcard/internal/model"
)

type Store interface {
	Create(ctx context.Context, ownerID, text string) (*model.Question, error)
	GetOwned(ctx context.Context, ownerID, id string) (*model.Question, error)
	ListByOwner(ctx context.Context, ownerID string, order model.Order) ([]model.Question, error)
	Update(ctx context.Context, ownerID, id, text string) (*model.Question, error)
	Delete(ctx context.Context, ownerID, id string) error
	SeedDefaults(ctx context.Context, ownerID string) error
}

type Service struct {
	store Store
	intn  func(n int) int
}

func NewService(store Store) *Service {
	return &Service{store: store, intn: rand.IntN}
}

// NewServiceWithRand uses r for random selection.
func NewServiceWithRand(store Store, r *rand.Rand) *Service {
	return &Service{store: store, intn: r.IntN}
}

// Home lists the owner's questions in insertion order, seeding the defaults
// first when the owner has none. Two concurrent first visits may both seed.
func (s *Service) Home(ctx context.Context, ownerID string) ([]model.Question, error) {
	questions, err := s.store.ListByOwner(ctx, ownerID, model.OrderInserted)
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		return questions, nil
	}

	if err := s.store.SeedDefaults(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return s.store.ListByOwner(ctx, ownerID, model.OrderInserted)
}

// List returns the owner's questions, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]model.Question, error) {
	return s.store.ListByOwner(ctx, ownerID, model.OrderNewest)
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Question, error) {
	return s.store.GetOwned(ctx, ownerID, id)
}

func (s *Service) Create(ctx context.Context, ownerID, text string) (*model.Question, error) {
	return s.store.Create(ctx, ownerID, text)
}

func (s *Service) Update(ctx context.Context, ownerID, id, text string) (*model.Question, error) {
	return s.store.Update(ctx, ownerID, id, text)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}

// Random picks one of the owner's current questions uniformly. An owner with no
// questions gets a question carrying model.FillerText.
func (s *Service) Random(ctx context.Context, ownerID string) (model.Question, error) {
	questions, err := s.store.ListByOwner(ctx, ownerID, model.OrderInserted)
	if err != nil {
		return model.Question{}, err
	}
	if len(questions) == 0 {
		return model.Question{Text: model.FillerText}, nil
	}
	return questions[s.intn(len(questions))], nil
}
