// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ID is the opaque identity shared by every stored entity. Values are
// compared with == and never interpreted.
type ID string

// NewID returns a fresh random identity.
func NewID() ID {
	return ID(uuid.NewString())
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Article represents a blog article.
type Article struct {
	ID       ID     `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	AuthorID ID     `gorm:"type:varchar(36);not null;index" json:"-" bson:"author"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author" bson:"-"`
	Title    string `gorm:"not null" json:"title" bson:"title"`
	Content  string `gorm:"type:text;not null" json:"content" bson:"content"`
	// CategoryID must reference an existing Category.
	CategoryID    ID        `gorm:"type:varchar(36);not null;index" json:"-" bson:"category"`
	Category      *Category `gorm:"foreignKey:CategoryID" json:"category" bson:"-"`
	CoverImageURL string    `json:"coverImageUrl,omitempty" bson:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate assigns an ID when the caller did not.
func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}

// Category groups articles. Categories are seeded out-of-band and are read-only through the API.
type Category struct {
	ID   ID     `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	Name string `gorm:"uniqueIndex;not null" json:"name" bson:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug" bson:"slug"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}
