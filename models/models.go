package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

type User struct {
	gorm.Model
	Username string `gorm:"unique"`
	Email    string `gorm:"unique"`
	Password string
	Posts    []Post    `gorm:"foreignkey:UserID"`
	Comments []Comment `gorm:"foreignkey:UserID"`
}

type Post struct {
	gorm.Model
	Title            string
	Content          string
	Category         string
	CommentsDisabled bool
	Likes            int
	Dislikes         int
	UserID           uint
	User             User
	Comments         []Comment `gorm:"foreignkey:PostID"`
}

type Comment struct {
	gorm.Model
	Content  string `gorm:"size:3000"`
	PostID   uint   `gorm:"index"`
	UserID   uint
	User     User
	ParentID *uint `gorm:"index"`
	Likes    int
	Dislikes int
}

// PostVote - голос пользователя за пост ("like" или "dislike"), не больше одного на пару
type PostVote struct {
	ID     uint   `gorm:"primary_key"`
	PostID uint   `gorm:"unique_index:idx_post_vote_user"`
	UserID uint   `gorm:"unique_index:idx_post_vote_user"`
	Value  string `gorm:"size:8"`
}

type CommentVote struct {
	ID        uint   `gorm:"primary_key"`
	CommentID uint   `gorm:"unique_index:idx_comment_vote_user"`
	UserID    uint   `gorm:"unique_index:idx_comment_vote_user"`
	Value     string `gorm:"size:8"`
}

type CSRFToken struct {
	SessionID string `gorm:"primary_key"`
	UserID    uint
	Value     string
	ExpiresAt time.Time `gorm:"index"`
}

// All - модели для AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{}, &Post{}, &Comment{}, &PostVote{}, &CommentVote{}, &CSRFToken{},
	}
}
