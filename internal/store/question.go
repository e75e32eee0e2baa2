package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/promptcard/internal/model"
	"github.com/google/uuid"
)

type QuestionStore struct {
	db *sql.DB
}

func NewQuestionStore(db *sql.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

func scanQuestion(scanner interface{ Scan(...any) error }) (*model.Question, error) {
	var q model.Question
	err := scanner.Scan(&q.ID, &q.OwnerID, &q.Text, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

const questionCols = `id, owner_id, text, created_at, updated_at`

// Create validates text and inserts a question owned by ownerID.
func (s *QuestionStore) Create(ctx context.Context, ownerID, text string) (*model.Question, error) {
	text, err := model.NormalizeQuestionText(text)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, owner_id, text, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, ownerID, text, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return s.GetOwned(ctx, ownerID, id)
}

// GetOwned returns the question only when it exists and belongs to ownerID.
func (s *QuestionStore) GetOwned(ctx context.Context, ownerID, id string) (*model.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListByOwner returns all questions for ownerID. Insertion order follows rowid.
func (s *QuestionStore) ListByOwner(ctx context.Context, ownerID string, order model.Order) ([]model.Question, error) {
	orderBy := `rowid ASC`
	if order == model.OrderNewest {
		orderBy = `created_at DESC, rowid DESC`
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE owner_id = ? ORDER BY `+orderBy,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func (s *QuestionStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE owner_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// Update replaces the text of an owned question. Returns model.ErrNotFound when
// the question does not exist or belongs to someone else, before the text is
// validated.
func (s *QuestionStore) Update(ctx context.Context, ownerID, id, text string) (*model.Question, error) {
	existing, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.ErrNotFound
	}

	text, err = model.NormalizeQuestionText(text)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		text, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}
	return s.GetOwned(ctx, ownerID, id)
}

// Delete removes an owned question. Unknown or foreign ids are ignored.
func (s *QuestionStore) Delete(ctx context.Context, ownerID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// SeedDefaults inserts model.DefaultQuestions for ownerID in a single transaction.
func (s *QuestionStore) SeedDefaults(ctx context.Context, ownerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, text := range model.DefaultQuestions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, owner_id, text, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), ownerID, text, now, now,
		); err != nil {
			return fmt.Errorf("seed question %q: %w", text, err)
		}
	}

	return tx.Commit()
}
