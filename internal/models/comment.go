package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on an article.
type Comment struct {
	ID        ID        `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	UserID    ID        `gorm:"type:varchar(36);not null;index" json:"-" bson:"user"`
	User      *User     `gorm:"foreignKey:UserID" json:"user" bson:"-"`
	ArticleID ID        `gorm:"type:varchar(36);not null;index" json:"article" bson:"article"`
	Content   string    `gorm:"type:text;not null" json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}
