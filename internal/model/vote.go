package model

import "fmt"

// Vote - голос текущего пользователя: нет голоса, "up" или "down"
type Vote string

const (
	VoteNone Vote = ""
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// ParseVote принимает как up/down, так и like/dislike (так голоса хранятся в БД)
func ParseVote(s string) (Vote, error) {
	switch s {
	case "up", "like":
		return VoteUp, nil
	case "down", "dislike":
		return VoteDown, nil
	case "", "none":
		return VoteNone, nil
	}
	return VoteNone, fmt.Errorf("invalid vote %q", s)
}

// Direction - true, если голос является направлением (up или down)
func (v Vote) Direction() bool {
	return v == VoteUp || v == VoteDown
}

// Toggle возвращает новое состояние после нажатия dir:
// повторное нажатие снимает голос, противоположное - меняет его.
func (v Vote) Toggle(dir Vote) Vote {
	if v == dir {
		return VoteNone
	}
	return dir
}

// Tally - счетчики лайков и дизлайков
type Tally struct {
	Likes    int
	Dislikes int
}

// Apply переносит один голос пользователя из состояния from в to
func (t Tally) Apply(from, to Vote) Tally {
	switch from {
	case VoteUp:
		t.Likes--
	case VoteDown:
		t.Dislikes--
	}
	switch to {
	case VoteUp:
		t.Likes++
	case VoteDown:
		t.Dislikes++
	}
	if t.Likes < 0 {
		t.Likes = 0
	}
	if t.Dislikes < 0 {
		t.Dislikes = 0
	}
	return t
}
