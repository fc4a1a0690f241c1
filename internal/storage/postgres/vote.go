package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/threadly/internal/auth"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/VitaminP8/threadly/internal/storage"
	"github.com/VitaminP8/threadly/models"
	"github.com/jinzhu/gorm"
)

// в БД голоса хранятся как like/dislike
var voteValues = map[model.Vote]string{
	model.VoteUp:   "like",
	model.VoteDown: "dislike",
}

// voteTable описывает, где лежат голоса цели и ее счетчики
type voteTable struct {
	kind    string
	target  func() interface{}
	votes   string
	column  string
	newVote func(targetID, userID uint, value string) interface{}
	empty   func() interface{}
}

var (
	postVotes = voteTable{
		kind:   "post",
		target: func() interface{} { return &models.Post{} },
		votes:  "post_votes",
		column: "post_id",
		newVote: func(targetID, userID uint, value string) interface{} {
			return &models.PostVote{PostID: targetID, UserID: userID, Value: value}
		},
		empty: func() interface{} { return &models.PostVote{} },
	}
	commentVotes = voteTable{
		kind:   "comment",
		target: func() interface{} { return &models.Comment{} },
		votes:  "comment_votes",
		column: "comment_id",
		newVote: func(targetID, userID uint, value string) interface{} {
			return &models.CommentVote{CommentID: targetID, UserID: userID, Value: value}
		},
		empty: func() interface{} { return &models.CommentVote{} },
	}
)

type VotePostgresStorage struct{}

func NewVotePostgresStorage() *VotePostgresStorage {
	return &VotePostgresStorage{}
}

func (s *VotePostgresStorage) Vote(ctx context.Context, target model.Target, dir model.Vote) (*model.VoteResult, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}
	if !dir.Direction() {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidVote, dir)
	}

	var table voteTable
	switch target.Kind {
	case model.TargetPost:
		table = postVotes
	case model.TargetComment:
		table = commentVotes
	default:
		return nil, fmt.Errorf("%w: unknown target %s", storage.ErrInvalidVote, target)
	}

	pk, err := parseID(table.kind, target.ID)
	if err != nil {
		return nil, err
	}

	tx := DB.Begin()
	result, err := toggleVote(tx, table, pk, userID, dir)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("could not save vote: %w", err)
	}
	return result, nil
}

// toggleVote меняет строку голоса и пересчитывает счетчики цели по строкам
func toggleVote(tx *gorm.DB, table voteTable, pk, userID uint, dir model.Vote) (*model.VoteResult, error) {
	var exists int
	if err := tx.Model(table.target()).Where("id = ?", pk).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("could not get %s: %w", table.kind, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s %d: %w", table.kind, pk, storage.ErrNotFound)
	}

	where := table.column + " = ? AND user_id = ?"
	var values []string
	if err := tx.Table(table.votes).Where(where, pk, userID).Pluck("value", &values).Error; err != nil {
		return nil, fmt.Errorf("could not get vote: %w", err)
	}

	current := model.VoteNone
	if len(values) > 0 {
		v, err := model.ParseVote(values[0])
		if err != nil {
			return nil, err
		}
		current = v
	}
	next := current.Toggle(dir)

	var err error
	switch {
	case next == model.VoteNone:
		err = tx.Where(where, pk, userID).Delete(table.empty()).Error
	case current == model.VoteNone:
		err = tx.Create(table.newVote(pk, userID, voteValues[next])).Error
	default:
		err = tx.Table(table.votes).Where(where, pk, userID).Update("value", voteValues[next]).Error
	}
	if err != nil {
		return nil, fmt.Errorf("could not save vote: %w", err)
	}

	var likes, dislikes int
	byTarget := tx.Table(table.votes).Where(table.column+" = ?", pk)
	if err := byTarget.Where("value = ?", "like").Count(&likes).Error; err != nil {
		return nil, fmt.Errorf("could not count votes: %w", err)
	}
	if err := byTarget.Where("value = ?", "dislike").Count(&dislikes).Error; err != nil {
		return nil, fmt.Errorf("could not count votes: %w", err)
	}

	err = tx.Model(table.target()).Where("id = ?", pk).
		Updates(map[string]interface{}{"likes": likes, "dislikes": dislikes}).Error
	if err != nil {
		return nil, fmt.Errorf("could not update counters: %w", err)
	}

	return &model.VoteResult{Likes: likes, Dislikes: dislikes, UserVote: next}, nil
}

func (s *VotePostgresStorage) UserVotes(ctx context.Context, postID string) (map[model.Target]model.Vote, error) {
	result := make(map[model.Target]model.Vote)
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return result, nil // анонимный пользователь не голосовал
	}
	pk, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}

	var postVote []models.PostVote
	if err := DB.Where("post_id = ? AND user_id = ?", pk, userID).Find(&postVote).Error; err != nil {
		return nil, fmt.Errorf("could not get post votes: %w", err)
	}
	for _, v := range postVote {
		if vote, err := model.ParseVote(v.Value); err == nil {
			result[model.PostTarget(postID)] = vote
		}
	}

	var rows []models.CommentVote
	err = DB.Table("comment_votes").
		Select("comment_votes.comment_id, comment_votes.value").
		Joins("JOIN comments ON comments.id = comment_votes.comment_id").
		Where("comments.post_id = ? AND comments.deleted_at IS NULL AND comment_votes.user_id = ?", pk, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not get comment votes: %w", err)
	}
	for _, v := range rows {
		if vote, err := model.ParseVote(v.Value); err == nil {
			result[model.CommentTarget(fmt.Sprint(v.CommentID))] = vote
		}
	}
	return result, nil
}
