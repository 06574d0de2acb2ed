// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit caps Query when the filter sets no limit.
const DefaultLimit = 100

// QueryFilter defines filters for listing audit entries.
type QueryFilter struct {
	User      string
	Action    string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store reads the audit collection. Entries are written by the platform
// and, for account self-service, by auditlog.Logger.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit")}
}

// EnsureIndexes creates the time-descending index used by the feed.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "time", Value: -1}},
			Options: options.Index().SetName("idx_audit_time"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "time", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_time"),
		},
	})
	return err
}

// Log appends an entry, assigning an ID and time when missing.
func (s *Store) Log(ctx context.Context, e models.AuditEntry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Latest returns entries newest first. A limit of 0 or less returns the
// whole collection.
func (s *Store) Latest(ctx context.Context, limit int64) ([]models.AuditEntry, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, bson.M{}, opts)
}

// Query retrieves entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(limit).
		SetSkip(filter.Offset)
	return s.find(ctx, buildQuery(filter), opts)
}

var newestFirst = bson.D{{Key: "time", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.AuditEntry, error) {
	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.AuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i] = clean(entries[i])
	}
	return entries, nil
}

// CountByFilter returns the number of entries matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// Watch opens a change stream over the audit collection.
func (s *Store) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	return s.c.Watch(ctx, mongo.Pipeline{})
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.User != "" {
		query["user"] = filter.User
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["time"] = timeQuery
	}
	return query
}

// clean strips markup from externally written text fields.
func clean(e models.AuditEntry) models.AuditEntry {
	e.Action = htmlsanitize.StripTags(e.Action)
	e.Object = htmlsanitize.StripTags(e.Object)
	e.User = htmlsanitize.StripTags(e.User)
	return e
}
