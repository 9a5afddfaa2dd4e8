// Package domain defines the persistence models for travellers and
// itineraries. These types are mapped with GORM and form the relational
// data layer of the trip-sharing application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Traveller represents an application user identified by email. A row is
// created on the first authenticated action and is never deleted in normal
// operation.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique identity-provider email; the ownership key for all
//     traveller-scoped resources.
//   - Name: display name taken from the identity token.
//   - AvatarURL: public object-storage URL of the uploaded avatar, if any.
type Traveller struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	AvatarURL string    `json:"avatar_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Traveller.
func (Traveller) TableName() string { return "travellers" }

// ShortDescriptionMax caps the short_description field by rune length.
const ShortDescriptionMax = 80

// Itinerary represents a single trip record owned by one traveller. Only the
// owner may mutate it. Deleting an itinerary also triggers removal of its
// like/comment/suggestion documents from the document store.
//
// OwnerEmail duplicates the owner's email from the travellers table so that
// ownership checks are a single indexed predicate instead of a join.
type Itinerary struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	TravellerID       string         `json:"traveller_id"       gorm:"type:char(36);not null;index"`
	OwnerEmail        string         `json:"owner_email"        gorm:"type:varchar(255);not null;index:idx_owner_itineraries"`
	Title             string         `json:"title"              gorm:"type:varchar(255);not null"`
	Destination       string         `json:"destination"        gorm:"type:varchar(255);not null"`
	StartDate         string         `json:"start_date"         gorm:"type:varchar(10);not null"` // YYYY-MM-DD
	EndDate           string         `json:"end_date"           gorm:"type:varchar(10);not null"` // YYYY-MM-DD
	ShortDescription  string         `json:"short_description"  gorm:"type:varchar(80);not null"`
	DetailDescription string         `json:"detail_description" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                  gorm:"index"`

	// Traveller is the owning account. Itineraries are cascade-deleted if
	// the traveller row is ever removed.
	Traveller Traveller `json:"-" gorm:"foreignKey:TravellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Itinerary.
func (Itinerary) TableName() string { return "itineraries" }
