package presenter

import (
	"github.com/VitaminP8/threadly/internal/model"
)

type action string

const (
	actVote   action = "vote"
	actReply  action = "reply"
	actEdit   action = "edit"
	actDelete action = "delete"
)

// control - один экземпляр элемента управления (кнопка голоса, отправка ответа и т.д.)
type control struct {
	action action
	target string
}

// state - явное состояние презентера, вся мутация идет только через него
type state struct {
	post     *model.Post
	session  model.Session
	byID     map[string]*model.Comment
	parentOf map[string]string // "" - корневой комментарий (граница поста)
	count    int
	replyTo  string            // комментарий с открытой формой ответа
	editing  map[string]string // id -> исходный текст на время правки
	inFlight map[control]struct{}
}

func newState(post *model.Post, session model.Session) *state {
	if post == nil {
		post = &model.Post{}
	}
	s := &state{
		post:     post,
		session:  session,
		byID:     make(map[string]*model.Comment),
		parentOf: make(map[string]string),
		editing:  make(map[string]string),
		inFlight: make(map[control]struct{}),
	}
	for _, c := range post.Comments {
		s.index(c, "")
	}
	s.count = model.CountComments(post.Comments)
	post.CommentCount = s.count
	return s
}

// index регистрирует поддерево; родитель берется из позиции в дереве
func (s *state) index(c *model.Comment, parentID string) {
	s.byID[c.ID] = c
	s.parentOf[c.ID] = parentID
	if parentID == "" {
		c.ParentID = nil
	} else {
		pid := parentID
		c.ParentID = &pid
	}
	if c.PostID == "" {
		c.PostID = s.post.ID
	}
	for _, child := range c.Children {
		s.index(child, c.ID)
	}
}

// depth считает предков до границы поста. Цепочка длиннее числа узлов означает цикл.
func (s *state) depth(id string) int {
	d := 0
	cur := id
	for steps := 0; steps <= len(s.byID); steps++ {
		parent, ok := s.parentOf[cur]
		if !ok || parent == "" {
			return d
		}
		d++
		cur = parent
	}
	return d
}

func (s *state) acquire(c control) bool {
	if _, busy := s.inFlight[c]; busy {
		return false
	}
	s.inFlight[c] = struct{}{}
	return true
}

func (s *state) release(c control) {
	delete(s.inFlight, c)
}

func (s *state) busy(c control) bool {
	_, ok := s.inFlight[c]
	return ok
}

// voteSlot - указатели на счетчики и голос цели
type voteSlot struct {
	likes    *int
	dislikes *int
	vote     *model.Vote
}

func (s *state) slot(t model.Target) (voteSlot, bool) {
	switch t.Kind {
	case model.TargetPost:
		if t.ID != s.post.ID {
			return voteSlot{}, false
		}
		return voteSlot{&s.post.Likes, &s.post.Dislikes, &s.post.UserVote}, true
	case model.TargetComment:
		c, ok := s.byID[t.ID]
		if !ok {
			return voteSlot{}, false
		}
		return voteSlot{&c.Likes, &c.Dislikes, &c.UserVote}, true
	}
	return voteSlot{}, false
}

func (v voteSlot) tally() model.Tally {
	return model.Tally{Likes: *v.likes, Dislikes: *v.dislikes}
}

func (v voteSlot) set(t model.Tally, vote model.Vote) {
	*v.likes = t.Likes
	*v.dislikes = t.Dislikes
	*v.vote = vote
}

// attach добавляет новый комментарий последним ребенком родителя (или поста)
func (s *state) attach(c *model.Comment, parentID string) bool {
	if c.Children == nil {
		c.Children = []*model.Comment{}
	}
	if parentID == "" {
		s.post.Comments = append(s.post.Comments, c)
	} else {
		parent, ok := s.byID[parentID]
		if !ok {
			return false
		}
		parent.Children = append(parent.Children, c)
	}
	s.index(c, parentID)
	s.count += model.CountComments([]*model.Comment{c})
	s.post.CommentCount = s.count
	return true
}

// detach удаляет узел вместе с потомками и возвращает размер удаленного поддерева
func (s *state) detach(id string) int {
	c, ok := s.byID[id]
	if !ok {
		return 0
	}
	parentID := s.parentOf[id]
	if parentID == "" {
		s.post.Comments = without(s.post.Comments, id)
	} else if parent, ok := s.byID[parentID]; ok {
		parent.Children = without(parent.Children, id)
	}

	removed := 0
	var forget func(n *model.Comment)
	forget = func(n *model.Comment) {
		removed++
		delete(s.byID, n.ID)
		delete(s.parentOf, n.ID)
		delete(s.editing, n.ID)
		if s.replyTo == n.ID {
			s.replyTo = ""
		}
		for _, child := range n.Children {
			forget(child)
		}
	}
	forget(c)

	s.count -= removed
	if s.count < 0 {
		s.count = 0
	}
	s.post.CommentCount = s.count
	return removed
}

func without(list []*model.Comment, id string) []*model.Comment {
	out := list[:0]
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func (s *state) isAuthor(c *model.Comment) bool {
	return s.session.Authenticated() && c.AuthorID == s.session.UserID
}
