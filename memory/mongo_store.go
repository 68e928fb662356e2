package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/tube-agent/llm"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// MongoStore keeps each session as one document in the "sessions" collection.
type MongoStore struct {
	collection odm.OdmCollectionInterface[Session]
	mu         sync.Mutex
	now        func() time.Time
}

func NewMongoStore(collection odm.OdmCollectionInterface[Session]) *MongoStore {
	return &MongoStore{collection: collection, now: time.Now}
}

func (s *MongoStore) CreateSession(ctx context.Context) (*Session, error) {
	sess := newSession("", s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (*Session, error) {
	sess, err := async.Await(s.collection.FindOneByID(ctx, id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		logger.Error("Failed to find session", zap.String("session", id), zap.Error(err))
		return nil, err
	}
	if sess.Messages == nil {
		sess.Messages = []llm.Message{}
	}
	return sess, nil
}

func (s *MongoStore) GetOrCreateSession(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		sess, err := s.GetSession(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}

	sess := newSession(id, s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *MongoStore) Append(ctx context.Context, id string, msgs ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.appendMessages(s.now(), msgs...); err != nil {
		return err
	}
	return s.save(ctx, sess)
}

func (s *MongoStore) Truncate(ctx context.Context, id string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if n >= len(sess.Messages) {
		return nil
	}
	sess.truncate(n, s.now())
	return s.save(ctx, sess)
}

func (s *MongoStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := async.Await(s.collection.Find(ctx, bson.M{}, nil, 0, 0))
	if err != nil {
		logger.Error("Failed to list sessions", zap.Error(err))
		return nil, err
	}

	out := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *MongoStore) save(ctx context.Context, sess *Session) error {
	_, err := async.Await(s.collection.Save(ctx, *sess))
	if err != nil {
		logger.Error("Failed to save session", zap.String("session", sess.ID), zap.Error(err))
		return err
	}
	return nil
}
