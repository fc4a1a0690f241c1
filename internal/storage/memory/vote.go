package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
)

type VoteMemoryStorage struct {
	mu       sync.Mutex
	votes    map[model.Target]map[uint]model.Vote // цель -> пользователь -> голос
	posts    *PostMemoryStorage
	comments *CommentMemoryStorage
}

func NewVoteMemoryStorage(posts *PostMemoryStorage, comments *CommentMemoryStorage) *VoteMemoryStorage {
	s := &VoteMemoryStorage{
		votes:    make(map[model.Target]map[uint]model.Vote),
		posts:    posts,
		comments: comments,
	}
	posts.onPostDeleted(func(id string) { s.forget(model.PostTarget(id)) })
	comments.onCommentsRemoved(func(ids []string) {
		targets := make([]model.Target, 0, len(ids))
		for _, id := range ids {
			targets = append(targets, model.CommentTarget(id))
		}
		s.forget(targets...)
	})
	return s
}

// forget удаляет голоса за удаленные посты и комментарии
func (s *VoteMemoryStorage) forget(targets ...model.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range targets {
		delete(s.votes, t)
	}
}

func (s *VoteMemoryStorage) Vote(ctx context.Context, target model.Target, dir model.Vote) (*model.VoteResult, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}
	if !dir.Direction() {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidVote, dir)
	}

	apply, err := s.applier(target)
	if err != nil {
		return nil, err
	}

	// счетчики пишутся под s.mu, чтобы параллельные голоса не затирали друг друга
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.votes[target]
	if !ok {
		byUser = make(map[uint]model.Vote)
		s.votes[target] = byUser
	}
	next := byUser[userID].Toggle(dir)
	if next == model.VoteNone {
		delete(byUser, userID)
	} else {
		byUser[userID] = next
	}

	var tally model.Tally
	for _, v := range byUser {
		tally = tally.Apply(model.VoteNone, v)
	}
	if err := apply(target.ID, tally); err != nil {
		return nil, err
	}

	return &model.VoteResult{Likes: tally.Likes, Dislikes: tally.Dislikes, UserVote: next}, nil
}

func (s *VoteMemoryStorage) applier(target model.Target) (func(string, model.Tally) error, error) {
	switch target.Kind {
	case model.TargetPost:
		if _, err := s.posts.GetPostById(target.ID); err != nil {
			return nil, err
		}
		return s.posts.applyTally, nil
	case model.TargetComment:
		if _, err := s.comments.GetCommentByID(target.ID); err != nil {
			return nil, err
		}
		return s.comments.applyTally, nil
	}
	return nil, fmt.Errorf("%w: unknown target %s", storage.ErrInvalidVote, target)
}

func (s *VoteMemoryStorage) UserVotes(ctx context.Context, postID string) (map[model.Target]model.Vote, error) {
	result := make(map[model.Target]model.Vote)
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return result, nil // анонимный пользователь не голосовал
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for target, byUser := range s.votes {
		v, ok := byUser[userID]
		if !ok {
			continue
		}
		switch target.Kind {
		case model.TargetPost:
			if target.ID == postID {
				result[target] = v
			}
		case model.TargetComment:
			if c, err := s.comments.GetCommentByID(target.ID); err == nil && c.PostID == postID {
				result[target] = v
			}
		}
	}
	return result, nil
}
