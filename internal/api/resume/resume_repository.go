package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

// ResumeRepo persists resume documents. At most one document exists per
// (userId, template) pair.
type ResumeRepo interface {
	ListByUser(ctx context.Context, userID string) ([]types.Resume, error)
	GetByID(ctx context.Context, id string) (*types.Resume, error)
	// Upsert merges fields into the resume for (userID, template), creating it
	// when absent. created reports whether a new document was inserted.
	Upsert(ctx context.Context, userID, template string, fields map[string]any) (resume *types.Resume, created bool, err error)
	Update(ctx context.Context, id string, update types.ResumeUpdate) (*types.Resume, error)
	Delete(ctx context.Context, id string) error
}

var _ ResumeRepo = (*MongoResumeRepo)(nil)

type MongoResumeRepo struct {
	logger  *slog.Logger
	resumes *mongo.Collection
	now     func() time.Time
}

func NewMongoResumeRepo(db *mongo.Database, logger *slog.Logger) *MongoResumeRepo {
	return &MongoResumeRepo{
		logger:  logger,
		resumes: db.Collection(database.ResumesCollection),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (r *MongoResumeRepo) ListByUser(ctx context.Context, userID string) ([]types.Resume, error) {
	cursor, err := r.resumes.Find(ctx, bson.M{types.ResumeKeyUserID: userID},
		options.Find().SetSort(bson.D{{Key: types.ResumeKeyID, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find resumes: %w", err)
	}
	defer cursor.Close(ctx)

	resumes := make([]types.Resume, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode resume: %w", err)
		}
		resumes = append(resumes, *resumeFromBSON(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return resumes, nil
}

func (r *MongoResumeRepo) GetByID(ctx context.Context, id string) (*types.Resume, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrNotFound
	}
	return r.findOne(ctx, bson.M{types.ResumeKeyID: oid})
}

func (r *MongoResumeRepo) findOne(ctx context.Context, filter bson.M) (*types.Resume, error) {
	var doc bson.M
	if err := r.resumes.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("find resume: %w", err)
	}
	return resumeFromBSON(doc), nil
}

func (r *MongoResumeRepo) Upsert(ctx context.Context, userID, template string, fields map[string]any) (*types.Resume, bool, error) {
	filter := bson.M{types.ResumeKeyUserID: userID, types.ResumeKeyTemplate: template}
	now := r.now()

	set := bson.M{types.ResumeKeyUpdatedAt: now}
	for k, v := range fields {
		set[k] = v
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{types.ResumeKeyCreatedAt: now},
	}

	res, err := r.resumes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on the unique index; the retry matches the winner.
		res, err = r.resumes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert resume: %w", err)
	}

	created := res.UpsertedID != nil
	resume, err := r.findOne(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	r.logger.DebugContext(ctx, "Resume upserted", slog.String("resumeID", resume.ID), slog.Bool("created", created))
	return resume, created, nil
}

func (r *MongoResumeRepo) Update(ctx context.Context, id string, update types.ResumeUpdate) (*types.Resume, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, types.ErrNotFound
	}

	set := bson.M{types.ResumeKeyUpdatedAt: r.now()}
	for k, v := range update.Fields {
		set[k] = v
	}
	if update.UserID != nil {
		set[types.ResumeKeyUserID] = *update.UserID
	}
	if update.Template != nil {
		set[types.ResumeKeyTemplate] = *update.Template
	}

	var doc bson.M
	err = r.resumes.FindOneAndUpdate(ctx, bson.M{types.ResumeKeyID: oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, types.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("%w: A resume for this user and template already exists.", types.ErrConflict)
		}
		return nil, fmt.Errorf("update resume: %w", err)
	}
	return resumeFromBSON(doc), nil
}

func (r *MongoResumeRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.ErrNotFound
	}
	res, err := r.resumes.DeleteOne(ctx, bson.M{types.ResumeKeyID: oid})
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func resumeFromBSON(doc bson.M) *types.Resume {
	resume := &types.Resume{Fields: make(map[string]any, len(doc))}
	for k, v := range doc {
		switch k {
		case types.ResumeKeyID:
			if oid, ok := v.(primitive.ObjectID); ok {
				resume.ID = oid.Hex()
			} else {
				resume.ID = fmt.Sprint(v)
			}
		case types.ResumeKeyUserID:
			resume.UserID, _ = v.(string)
		case types.ResumeKeyTemplate:
			resume.Template, _ = v.(string)
		case types.ResumeKeyCreatedAt:
			resume.CreatedAt = bsonTime(v)
		case types.ResumeKeyUpdatedAt:
			resume.UpdatedAt = bsonTime(v)
		default:
			if !types.IsReservedResumeKey(k) {
				resume.Fields[k] = plainValue(v)
			}
		}
	}
	return resume
}

func bsonTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}

// plainValue converts driver-specific BSON values into the types
// encoding/json produces, so nested content round-trips unchanged.
func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plainValue(e)
		}
		return m
	case primitive.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = plainValue(e)
		}
		return s
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
