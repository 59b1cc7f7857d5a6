package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoSessionCollection = "sessions"

// MongoStore keeps one document per session. Put is a single atomic
// findAndModify upsert, so concurrent writers append rather than overwrite.
type MongoStore struct {
	coll     *mongo.Collection
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

func NewMongoStore(db *mongo.Database, ttl time.Duration, maxTurns int) *MongoStore {
	return &MongoStore{
		coll:     db.Collection(mongoSessionCollection),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// EnsureIndexes creates the TTL index that expires idle sessions.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index failed: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Context, error) {
	var cur Context
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cur)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Context{ID: id}, nil
	}
	if err != nil {
		return Context{}, fmt.Errorf("mongo get session failed: %w", err)
	}
	return cur, nil
}

func (s *MongoStore) Put(ctx context.Context, id string, delta Delta) (Context, error) {
	if id == "" {
		return Context{}, ErrInvalidID
	}

	update := mongoUpdate(delta, s.now(), s.maxTurns)
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var merged Context
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&merged); err != nil {
		return Context{}, fmt.Errorf("mongo put session failed: %w", err)
	}
	return merged, nil
}

// mongoUpdate builds the upsert document for one delta: the source is
// replaced when present and turns are appended, trimmed to the last maxTurns.
func mongoUpdate(delta Delta, now time.Time, maxTurns int) bson.M {
	set := bson.M{"updated_at": now}
	if delta.Source != nil {
		set["source"] = *delta.Source
	}
	update := bson.M{
		"$setOnInsert": bson.M{"created_at": now},
		"$set":         set,
	}
	if len(delta.Turns) > 0 {
		turns := make([]Turn, 0, len(delta.Turns))
		for _, turn := range delta.Turns {
			if turn.At.IsZero() {
				turn.At = now
			}
			turns = append(turns, turn)
		}
		push := bson.M{"$each": turns}
		if maxTurns > 0 {
			push["$slice"] = -maxTurns
		}
		update["$push"] = bson.M{"turns": push}
	}
	return update
}
