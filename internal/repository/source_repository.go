package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"studygenie/internal/model"
)

const sourceCollection = "sources"

type SourceRepository struct {
	coll *mongo.Collection
}

func NewSourceRepository(db *mongo.Database) *SourceRepository {
	return &SourceRepository{coll: db.Collection(sourceCollection)}
}

// Upsert writes the record keyed by session id. CreatedAt is kept from the
// first upload.
func (r *SourceRepository) Upsert(ctx context.Context, rec model.SourceRecord) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"type":       rec.Type,
			"name":       rec.Name,
			"mime_type":  rec.MimeType,
			"chars":      rec.Chars,
			"preview":    rec.Preview,
			"user_id":    rec.UserID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": rec.SessionID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert source record failed: %w", err)
	}
	return nil
}

func (r *SourceRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.SourceRecord, error) {
	var rec model.SourceRecord
	if err := r.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("query source record failed: %w", err)
	}
	return &rec, nil
}
