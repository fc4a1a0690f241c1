// Package presenter держит дерево комментариев поста в памяти, проецирует его
// во view и выполняет действия пользователя (голос, ответ, правка, удаление)
// против удаленного API.
package presenter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent     = errors.New("content is empty")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMaxDepth         = errors.New("maximum nesting depth reached")
	ErrMissingCSRF      = errors.New("anti-forgery token is missing")
	ErrControlBusy      = errors.New("control is busy")
	ErrUnknownComment   = errors.New("comment not found")
	ErrCommentsDisabled = errors.New("comments are disabled")
	ErrNotAuthor        = errors.New("not the author of the comment")
	ErrInvalidVote      = errors.New("invalid vote direction")
)

// API - удаленный бэкенд, с которым синхронизируется дерево
type API interface {
	Vote(ctx context.Context, s model.Session, target model.Target, dir model.Vote) (*model.VoteResult, error)
	CreateComment(ctx context.Context, s model.Session, postID, parentID, content string) (*model.Comment, error)
	UpdateComment(ctx context.Context, s model.Session, id, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, s model.Session, id string) (int, error)
}

// Notifier показывает пользователю всплывающее уведомление
type Notifier interface {
	Notify(message string)
}

// Confirmer задает блокирующий вопрос да/нет
type Confirmer interface {
	Confirm(prompt string) bool
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

type Option func(*Presenter)

func WithMaxDepth(n int) Option {
	return func(p *Presenter) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(p *Presenter) { p.notifier = n }
}

func WithConfirmer(c Confirmer) Option {
	return func(p *Presenter) { p.confirmer = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Presenter) { p.log = l }
}

func withClock(now func() time.Time) Option {
	return func(p *Presenter) { p.now = now }
}

type Presenter struct {
	mu        sync.Mutex
	st        *state
	api       API
	notifier  Notifier
	confirmer Confirmer
	maxDepth  int
	log       *zap.Logger
	now       func() time.Time
}

// New создает презентер для поста. Дерево post.Comments принадлежит презентеру
// и дальше меняется только через его методы.
func New(post *model.Post, session model.Session, api API, opts ...Option) *Presenter {
	p := &Presenter{
		api:      api,
		maxDepth: model.MaxDepth,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = logNotifier{log: p.log}
	}
	if p.confirmer == nil {
		// без диалога подтверждения удаление невозможно
		p.confirmer = ConfirmerFunc(func(string) bool { return false })
	}
	p.st = newState(post, session)
	return p
}

// CommentCount - видимый счетчик комментариев
func (p *Presenter) CommentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.count
}

// Depth возвращает глубину комментария, вычисленную по цепочке предков
func (p *Presenter) Depth(id string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.st.byID[id]; !ok {
		return 0, ErrUnknownComment
	}
	return p.st.depth(id), nil
}

func (p *Presenter) notify(messages ...string) {
	for _, m := range messages {
		if m != "" {
			p.notifier.Notify(m)
		}
	}
}

type logNotifier struct {
	log *zap.Logger
}

func (n logNotifier) Notify(message string) {
	n.log.Info("notification", zap.String("message", message))
}
