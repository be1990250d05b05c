package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/ollama-chat/internal/config"
	"github.com/Rrens/ollama-chat/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// snapshotID is the _id of the single document holding the session set
const snapshotID = "sessions"

type messageDoc struct {
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

type sessionDoc struct {
	ID        int64        `bson:"id"`
	Name      string       `bson:"name"`
	CreatedAt time.Time    `bson:"created_at"`
	Messages  []messageDoc `bson:"messages"`
}

type snapshotDoc struct {
	ID        string       `bson:"_id"`
	Sessions  []sessionDoc `bson:"sessions"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// Store keeps the whole session set as one document, so every Save is atomic
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewStore connects to MongoDB
func NewStore(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *Store) Load(ctx context.Context) ([]domain.Session, error) {
	var doc snapshotDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": snapshotID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return fromDocs(doc.Sessions)
}

func (s *Store) Save(ctx context.Context, sessions []domain.Session) error {
	doc := snapshotDoc{
		ID:        snapshotID,
		Sessions:  toDocs(sessions),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": snapshotID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

// Ping verifies server connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func toDocs(sessions []domain.Session) []sessionDoc {
	docs := make([]sessionDoc, 0, len(sessions))
	for _, sess := range sessions {
		msgs := make([]messageDoc, 0, len(sess.Messages))
		for _, m := range sess.Messages {
			msgs = append(msgs, messageDoc{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt})
		}
		docs = append(docs, sessionDoc{ID: sess.ID, Name: sess.Name, CreatedAt: sess.CreatedAt, Messages: msgs})
	}
	return docs
}

func fromDocs(docs []sessionDoc) ([]domain.Session, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	sessions := make([]domain.Session, 0, len(docs))
	for _, d := range docs {
		sess := domain.Session{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, Messages: []domain.Message{}}
		for _, m := range d.Messages {
			role, err := domain.ParseRole(m.Role)
			if err != nil {
				return nil, fmt.Errorf("session %d: %w", d.ID, err)
			}
			sess.Messages = append(sess.Messages, domain.Message{Role: role, Content: m.Content, CreatedAt: m.CreatedAt})
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
