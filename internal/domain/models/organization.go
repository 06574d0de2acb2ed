// internal/domain/models/organization.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Organization groups users. Users reference it by Abbreviation.
type Organization struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Abbreviation string             `bson:"abbreviation" json:"abbreviation"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
}
