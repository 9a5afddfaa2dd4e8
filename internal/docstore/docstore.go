// Package docstore implements the document persistence layer for likes,
// comments, and AI-suggestion records, backed by the official MongoDB
// driver. Each itinerary's documents live in shared collections filtered by
// itinerary_id; deleting an itinerary purges its documents.
//
// All methods are context-aware. Like the GORM repo package, docstore holds
// no business logic: ownership and validation rules live in the services.
package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/roamline/go-trip-backend/internal/config"
	"github.com/roamline/go-trip-backend/internal/domain"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Store wraps the collections used by the application. Construct with New
// (or NewWithDatabase in tests) and share a single instance per process.
type Store struct {
	client      *mongo.Client
	likes       *mongo.Collection
	comments    *mongo.Collection
	suggestions *mongo.Collection
}

// Connect dials MongoDB and returns a ready Store.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	s := NewWithDatabase(client.Database(cfg.Database))
	s.client = client
	return s, nil
}

// NewWithDatabase builds a Store on an existing database handle. Used by
// Connect and by integration tests that bring their own client.
func NewWithDatabase(db *mongo.Database) *Store {
	return &Store{
		likes:       db.Collection("likes"),
		comments:    db.Collection("comments"),
		suggestions: db.Collection("suggestions"),
	}
}

// EnsureIndexes creates the compound uniqueness index for likes and the
// itinerary-scoped lookup indexes. Safe to call repeatedly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "itinerary_id", Value: 1}, {Key: "user_email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "itinerary_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Ping verifies connectivity; used by the database-health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

//
// Likes
//

// ToggleLike flips the like state of (itineraryID, email) and returns the
// resulting state plus the new like count.
func (s *Store) ToggleLike(ctx context.Context, itineraryID, email string) (liked bool, count int64, err error) {
	filter := bson.M{"itinerary_id": itineraryID, "user_email": email}

	res, err := s.likes.DeleteOne(ctx, filter)
	if err != nil {
		return false, 0, err
	}
	if res.DeletedCount == 0 {
		_, err = s.likes.InsertOne(ctx, domain.Like{
			ItineraryID: itineraryID,
			UserEmail:   email,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	count, err = s.LikeCount(ctx, itineraryID)
	return liked, count, err
}

// LikeCount returns the number of likes on an itinerary.
func (s *Store) LikeCount(ctx context.Context, itineraryID string) (int64, error) {
	return s.likes.CountDocuments(ctx, bson.M{"itinerary_id": itineraryID})
}

// IsLiked reports whether email currently likes the itinerary.
func (s *Store) IsLiked(ctx context.Context, itineraryID, email string) (bool, error) {
	n, err := s.likes.CountDocuments(ctx, bson.M{"itinerary_id": itineraryID, "user_email": email})
	return n > 0, err
}

//
// Comments
//

// AddComment inserts a comment document. The caller populates ID and
// CreatedAt via the service layer.
func (s *Store) AddComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.comments.InsertOne(ctx, c)
	return err
}

// ListComments returns an itinerary's comments, newest first.
func (s *Store) ListComments(ctx context.Context, itineraryID string, limit int64) ([]domain.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.comments.Find(ctx, bson.M{"itinerary_id": itineraryID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetComment fetches one comment by id, or ErrNotFound.
func (s *Store) GetComment(ctx context.Context, itineraryID, commentID string) (*domain.Comment, error) {
	var c domain.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": commentID, "itinerary_id": itineraryID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteComment removes a comment only when authorEmail matches the stored
// author. Returns ErrNotFound when nothing was deleted.
func (s *Store) DeleteComment(ctx context.Context, itineraryID, commentID, authorEmail string) error {
	res, err := s.comments.DeleteOne(ctx, bson.M{
		"_id":          commentID,
		"itinerary_id": itineraryID,
		"email":        authorEmail,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

//
// Suggestions
//

// UpsertSuggestion writes the suggestion record for an itinerary, replacing
// any previous one. Foreground and background runs both call this; last
// write wins.
func (s *Store) UpsertSuggestion(ctx context.Context, rec *domain.SuggestionRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	_, err := s.suggestions.ReplaceOne(ctx,
		bson.M{"_id": rec.ItineraryID},
		rec,
		options.Replace().SetUpsert(true),
	)
	return err
}

// GetSuggestion returns the suggestion record for an itinerary, or
// ErrNotFound when none has been written yet (clients treat that as queued).
func (s *Store) GetSuggestion(ctx context.Context, itineraryID string) (*domain.SuggestionRecord, error) {
	var rec domain.SuggestionRecord
	err := s.suggestions.FindOne(ctx, bson.M{"_id": itineraryID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PurgeItinerary removes all documents belonging to a deleted itinerary:
// likes, comments, and the suggestion record. Errors are joined so a partial
// failure still attempts the remaining collections.
func (s *Store) PurgeItinerary(ctx context.Context, itineraryID string) error {
	var errs []error
	if _, err := s.likes.DeleteMany(ctx, bson.M{"itinerary_id": itineraryID}); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.comments.DeleteMany(ctx, bson.M{"itinerary_id": itineraryID}); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.suggestions.DeleteOne(ctx, bson.M{"_id": itineraryID}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
