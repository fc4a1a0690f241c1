package model

import (
	"fmt"
	"time"
)

// MaxDepth - максимальная глубина вложенности комментариев (корневой комментарий имеет глубину 0)
const MaxDepth = 4

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type Post struct {
	ID               string     `json:"id"`
	AuthorID         string     `json:"authorId"`
	Author           string     `json:"author"`
	Category         string     `json:"category"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	CreatedAt        time.Time  `json:"createdAt"`
	Likes            int        `json:"likes"`
	Dislikes         int        `json:"dislikes"`
	UserVote         Vote       `json:"userVote"`
	CommentsDisabled bool       `json:"commentsDisabled"`
	CommentCount     int        `json:"commentCount"`
	Comments         []*Comment `json:"comments"`
}

type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	ParentID  *string    `json:"parentId"`
	AuthorID  string     `json:"authorId"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Likes     int        `json:"likes"`
	Dislikes  int        `json:"dislikes"`
	UserVote  Vote       `json:"userVote"`
	Children  []*Comment `json:"children"`
}

// Session - состояние сессии, встроенное в страницу: токен доступа и anti-forgery токен
type Session struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Token     string `json:"token,omitempty"`
	CSRFToken string `json:"csrfToken"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}

type VoteResult struct {
	Likes    int  `json:"likes"`
	Dislikes int  `json:"dislikes"`
	UserVote Vote `json:"userVote"`
}

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target - объект голосования (пост или комментарий)
type Target struct {
	Kind TargetKind
	ID   string
}

func PostTarget(id string) Target    { return Target{Kind: TargetPost, ID: id} }
func CommentTarget(id string) Target { return Target{Kind: TargetComment, ID: id} }

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// APIError - ответ сервера с кодом не из диапазона 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// CountComments считает все комментарии дерева, включая вложенные
func CountComments(comments []*Comment) int {
	n := 0
	for _, c := range comments {
		n += 1 + CountComments(c.Children)
	}
	return n
}

type EventType string

const (
	EventCommentCreated EventType = "created"
	EventCommentUpdated EventType = "updated"
	EventCommentDeleted EventType = "deleted"
)

// CommentEvent - изменение дерева комментариев поста для подписчиков
type CommentEvent struct {
	Type    EventType `json:"type"`
	PostID  string    `json:"postId"`
	Comment *Comment  `json:"comment"`
	Removed int       `json:"removed,omitempty"`
}
