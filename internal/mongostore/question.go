package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/promptcard/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type questionDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	OwnerID   string             `bson:"owner_id"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *questionDoc) model() model.Question {
	return model.Question{
		ID:        d.ID.Hex(),
		OwnerID:   d.OwnerID,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// QuestionStore keeps questions in one collection. ObjectIDs are generated
// client-side in sequence, so sorting on _id gives insertion order.
type QuestionStore struct {
	coll *mongo.Collection
}

func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{coll: db.Collection(questionsCollection)}
}

func newQuestionDoc(ownerID, text string, t time.Time) questionDoc {
	return questionDoc{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Text:      text,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

func (s *QuestionStore) Create(ctx context.Context, ownerID, text string) (*model.Question, error) {
	text, err := model.NormalizeQuestionText(text)
	if err != nil {
		return nil, err
	}

	doc := newQuestionDoc(ownerID, text, now())
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	q := doc.model()
	return &q, nil
}

func (s *QuestionStore) GetOwned(ctx context.Context, ownerID, id string) (*model.Question, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc questionDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "owner_id": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	q := doc.model()
	return &q, nil
}

func (s *QuestionStore) ListByOwner(ctx context.Context, ownerID string, order model.Order) ([]model.Question, error) {
	sort := bson.D{{Key: "_id", Value: 1}}
	if order == model.OrderNewest {
		sort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}

	cur, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer cur.Close(ctx)

	var questions []model.Question
	for cur.Next(ctx) {
		var doc questionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, doc.model())
	}
	return questions, cur.Err()
}

func (s *QuestionStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return int(n), nil
}

// Update replaces the text of an owned question. Returns model.ErrNotFound when
// the id is malformed, unknown or owned by someone else, before the text is
// validated.
func (s *QuestionStore) Update(ctx context.Context, ownerID, id, text string) (*model.Question, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrNotFound
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": oid, "owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("check question owner: %w", err)
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}

	text, err = model.NormalizeQuestionText(text)
	if err != nil {
		return nil, err
	}

	var doc questionDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "owner_id": ownerID},
		bson.M{"$set": bson.M{"text": text, "updated_at": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	q := doc.model()
	return &q, nil
}

func (s *QuestionStore) Delete(ctx context.Context, ownerID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "owner_id": ownerID}); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// SeedDefaults inserts model.DefaultQuestions for ownerID with one ordered
// InsertMany.
func (s *QuestionStore) SeedDefaults(ctx context.Context, ownerID string) error {
	t := now()
	docs := make([]any, len(model.DefaultQuestions))
	for i, text := range model.DefaultQuestions {
		docs[i] = newQuestionDoc(ownerID, text, t)
	}
	if _, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	return nil
}
