package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local record of an identity issued by the external provider.
type User struct {
	ID ID `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	// Auth0ID is the token subject. It is never serialized to clients.
	Auth0ID string `gorm:"column:auth0_id;uniqueIndex;not null" json:"-" bson:"auth0Id"`
	Email   string `json:"email,omitempty" bson:"email"`
	Name    string `json:"name" bson:"name"`
	Bio     string `json:"bio,omitempty" bson:"bio"`
	// BookmarkedIDs is stored in the bookmarks table for SQL stores and
	// inline for the document store.
	BookmarkedIDs []ID      `gorm:"-" json:"bookmarkedIds,omitempty" bson:"bookmarkedIds"`
	// Populated authors carry only _id and name; zero timestamps stay out of the payload.
	CreatedAt time.Time `json:"createdAt,omitzero" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" bson:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// HasBookmark reports whether articleID is in the user's bookmark set.
func (u *User) HasBookmark(articleID ID) bool {
	for _, id := range u.BookmarkedIDs {
		if id == articleID {
			return true
		}
	}
	return false
}

// Bookmark links a user to an article they saved.
type Bookmark struct {
	UserID    ID `gorm:"primaryKey;type:varchar(36)"`
	ArticleID ID `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time
}

// PublicProfile is the view of a user exposed to other users.
type PublicProfile struct {
	ID    ID     `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Bio   string `json:"bio"`
}

// Public strips private fields from the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Email: u.Email, Name: u.Name, Bio: u.Bio}
}

// Profile is the caller's own view of their record.
type Profile struct {
	ID            ID     `json:"_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	BookmarkedIDs []ID   `json:"bookmarkedIds"`
}

// Profile returns the owner's view, with an empty bookmark list instead of null.
func (u *User) Profile() Profile {
	ids := u.BookmarkedIDs
	if ids == nil {
		ids = []ID{}
	}
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Bio: u.Bio, BookmarkedIDs: ids}
}
