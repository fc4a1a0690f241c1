package subscription

import "github.com/VitaminP8/threadly/internal/model"

type Manager interface {
	Subscribe(postID string) (<-chan *model.CommentEvent, func())
	Publish(postID string, event *model.CommentEvent)
}
