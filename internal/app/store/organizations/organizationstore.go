// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"

	"github.com/dalemusser/couponhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this abbreviation already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "abbreviation", Value: 1}},
		Options: options.Index().SetName("uniq_organizations_abbreviation").SetUnique(true),
	})
	return err
}

func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

// List returns organizations sorted by abbreviation.
func (s *Store) List(ctx context.Context) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "abbreviation", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}
