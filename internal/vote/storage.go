package vote

import (
	"context"

	"github.com/VitaminP8/threadly/internal/model"
)

type VoteStorage interface {
	// Vote переключает голос пользователя из контекста и возвращает пересчитанные счетчики
	Vote(ctx context.Context, target model.Target, dir model.Vote) (*model.VoteResult, error)
	// UserVotes - голоса пользователя из контекста за пост и его комментарии
	UserVotes(ctx context.Context, postID string) (map[model.Target]model.Vote, error)
}
