package presenter

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/VitaminP8/threadly/internal/model"
)

// indentStep - отступ одного уровня вложенности в пикселях
const indentStep = 24

//go:embed templates/*.html
var templateFS embed.FS

var postTemplate = template.Must(template.New("post.html").ParseFS(templateFS, "templates/*.html"))

type PostView struct {
	ID            string
	Title         string
	Author        string
	Category      string
	Content       string
	CreatedAt     time.Time
	TimeAgo       string
	Likes         int
	Dislikes      int
	UpActive      bool
	DownActive    bool
	VotingEnabled bool
	VoteBusy      bool
	CanComment    bool
	CommentBusy   bool
	CommentCount  int
	CSRFToken     string
	Comments      []CommentView
}

type CommentView struct {
	ID            string
	ParentID      string
	Author        string
	Content       string
	CreatedAt     time.Time
	TimeAgo       string
	Depth         int
	Indent        int
	Likes         int
	Dislikes      int
	UpActive      bool
	DownActive    bool
	VotingEnabled bool
	VoteBusy      bool
	CanReply      bool
	ReplyOpen     bool
	ReplyBusy     bool
	CanModify     bool
	Editing       bool
	EditText      string
	Replies       []CommentView
}

// View проецирует текущее состояние модели во view. Каждый вызов строит новую проекцию.
func (p *Presenter) View() PostView {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.st
	now := p.now()
	authed := st.session.Authenticated()

	v := PostView{
		ID:            st.post.ID,
		Title:         st.post.Title,
		Author:        st.post.Author,
		Category:      st.post.Category,
		Content:       st.post.Content,
		CreatedAt:     st.post.CreatedAt,
		TimeAgo:       timeAgo(st.post.CreatedAt, now),
		Likes:         st.post.Likes,
		Dislikes:      st.post.Dislikes,
		UpActive:      st.post.UserVote == model.VoteUp,
		DownActive:    st.post.UserVote == model.VoteDown,
		VotingEnabled: authed,
		VoteBusy:      st.busy(control{action: actVote, target: model.PostTarget(st.post.ID).String()}),
		CanComment:    authed && !st.post.CommentsDisabled,
		CommentBusy:   st.busy(control{action: actReply, target: replyTarget(st.post.ID, "")}),
		CommentCount:  st.count,
		CSRFToken:     st.session.CSRFToken,
	}
	for _, c := range st.post.Comments {
		v.Comments = append(v.Comments, p.commentView(c, now))
	}
	return v
}

func (p *Presenter) commentView(c *model.Comment, now time.Time) CommentView {
	st := p.st
	depth := st.depth(c.ID)
	editText, editing := st.editing[c.ID]
	v := CommentView{
		ID:            c.ID,
		Author:        c.Author,
		Content:       c.Content,
		CreatedAt:     c.CreatedAt,
		TimeAgo:       timeAgo(c.CreatedAt, now),
		Depth:         depth,
		Indent:        depth * indentStep,
		Likes:         c.Likes,
		Dislikes:      c.Dislikes,
		UpActive:      c.UserVote == model.VoteUp,
		DownActive:    c.UserVote == model.VoteDown,
		VotingEnabled: st.session.Authenticated(),
		VoteBusy:      st.busy(control{action: actVote, target: model.CommentTarget(c.ID).String()}),
		CanReply:      p.replyBlocker(c.ID) == nil,
		ReplyBusy:     st.busy(control{action: actReply, target: c.ID}),
		CanModify:     st.isAuthor(c),
		Editing:       editing,
		EditText:      editText,
	}
	if c.ParentID != nil {
		v.ParentID = *c.ParentID
	}
	v.ReplyOpen = v.CanReply && st.replyTo == c.ID
	for _, child := range c.Children {
		v.Replies = append(v.Replies, p.commentView(child, now))
	}
	return v
}

// replyBlocker возвращает причину, по которой под комментарием нельзя показать ответ
func (p *Presenter) replyBlocker(id string) error {
	st := p.st
	switch {
	case !st.session.Authenticated():
		return ErrNotAuthenticated
	case st.post.CommentsDisabled:
		return ErrCommentsDisabled
	case st.depth(id) >= p.maxDepth:
		return ErrMaxDepth
	}
	return nil
}

// Render пишет HTML текущей проекции
func (p *Presenter) Render(w io.Writer) error {
	if err := postTemplate.ExecuteTemplate(w, "post", p.View()); err != nil {
		return fmt.Errorf("render post: %w", err)
	}
	return nil
}

func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	seconds := int(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return "just now"
	case minutes < 60:
		return plural(minutes, "min")
	case hours < 24:
		return plural(hours, "hour")
	case days < 30:
		return plural(days, "day")
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s ago", n, unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
