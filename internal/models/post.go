package models

import (
	"time"

	"gorm.io/gorm"
)

// Author is the denormalized author snapshot stored on each post.
type Author struct {
	Username string `gorm:"index;not null" bson:"username" json:"username"`
	Avatar   string `bson:"avatar" json:"avatar"`
}

// Post represents a post in DevGram. A post carries any of a caption, text
// content, an image, a video or a code snippet.
//
// LikedBy and SavedBy are sets. The SQL backend keeps them in post_likes and
// post_saves; the document backend keeps them as arrays on the document.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Author    Author    `gorm:"embedded;embeddedPrefix:author_" bson:"author" json:"author"`
	Caption   string    `gorm:"type:text" bson:"caption" json:"caption"`
	Content   string    `gorm:"type:text" bson:"content" json:"content"`
	Image     string    `bson:"image" json:"image,omitempty"`
	Video     string    `bson:"video" json:"video,omitempty"`
	Code      string    `gorm:"type:text" bson:"code" json:"code,omitempty"`
	Language  string    `gorm:"index" bson:"language" json:"language,omitempty"`
	Likes     int       `gorm:"not null;default:0" bson:"likes" json:"likes"`
	LikedBy   []string  `gorm:"-" bson:"likedBy" json:"likedBy"`
	SavedBy   []string  `gorm:"-" bson:"savedBy" json:"-"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" bson:"comments" json:"comments"`
	Liked     bool      `gorm:"-" bson:"-" json:"liked"`
	Saved     bool      `gorm:"-" bson:"-" json:"saved"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an ID.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	p.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID and timestamps.
func (p *Post) PrepareForInsert() {
	ensureID(&p.ID)
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	if p.SavedBy == nil {
		p.SavedBy = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// ForViewer fills the viewer-specific Liked and Saved flags.
func (p *Post) ForViewer(username string) {
	p.Liked = containsString(p.LikedBy, username)
	p.Saved = containsString(p.SavedBy, username)
}

// IsEmpty reports whether the post has nothing to show.
func (p *Post) IsEmpty() bool {
	return p.Caption == "" && p.Content == "" && p.Image == "" && p.Video == "" && p.Code == ""
}

// Comment is a reply on a post, carrying a snapshot of the commenter.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	PostID    string    `gorm:"index;type:varchar(36);not null" bson:"-" json:"postId,omitempty"`
	Username  string    `gorm:"not null" bson:"username" json:"username"`
	Avatar    string    `bson:"avatar" json:"avatar"`
	Text      string    `gorm:"type:text;not null" bson:"text" json:"text"`
	Likes     int       `gorm:"not null;default:0" bson:"likes" json:"likes"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	c.PrepareForInsert()
	return nil
}

// PrepareForInsert fills the ID and timestamp.
func (c *Comment) PrepareForInsert() {
	ensureID(&c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

// PostLike is one member of a post's like set.
type PostLike struct {
	PostID    string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"primaryKey;size:30"`
	CreatedAt time.Time
}

// PostSave is one member of a post's saved set.
type PostSave struct {
	PostID    string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"primaryKey;size:30;index"`
	CreatedAt time.Time
}

func containsString(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
