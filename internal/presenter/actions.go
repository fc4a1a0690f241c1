package presenter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VitaminP8/threadly/internal/model"
	"go.uber.org/zap"
)

const (
	msgGeneric          = "An error occurred. Please try again."
	msgLoginToVote      = "Please log in to vote"
	msgLoginToComment   = "Please log in to comment"
	msgEmptyComment     = "Comment cannot be empty"
	msgEmptyReply       = "Reply cannot be empty"
	msgMaxDepth         = "Maximum reply depth reached"
	msgCommentsDisabled = "Comments are disabled for this post"
	msgNotAuthor        = "You can only modify your own comments"
	msgVoteFailed       = "Failed to vote. Please try again."
	msgCommentFailed    = "Failed to post comment"
	msgCommentError     = "An error occurred while posting the comment"
	msgReplyFailed      = "Failed to post reply"
	msgReplyError       = "An error occurred while posting the reply"
	msgConfirmDelete    = "Are you sure you want to delete this comment?"
	msgDeleteFailed     = "Failed to delete comment"
	msgDeleteError      = "An error occurred while deleting the comment"
	msgDeleted          = "Comment deleted successfully"
	msgEditFailed       = "Failed to save the edited comment"
	msgEditError        = "An error occurred while saving the edited comment"
	msgEdited           = "Comment updated successfully"
)

// failureMessage выбирает текст уведомления: сообщение сервера, если оно есть,
// иначе запасной текст для ответа сервера или для сбоя транспорта
func failureMessage(err error, serverFallback, transportFallback string) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return serverFallback
	}
	return transportFallback
}

// Vote голосует за пост или комментарий. Счетчики меняются сразу (оптимистично),
// после ответа сервера сверяются с его значениями, при ошибке откатываются.
func (p *Presenter) Vote(ctx context.Context, target model.Target, dir model.Vote) error {
	if !dir.Direction() {
		p.notify(msgGeneric)
		return fmt.Errorf("%w: %q", ErrInvalidVote, dir)
	}

	p.mu.Lock()
	st := p.st
	if !st.session.Authenticated() {
		p.mu.Unlock()
		p.notify(msgLoginToVote)
		return ErrNotAuthenticated
	}
	slot, ok := st.slot(target)
	if !ok {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return fmt.Errorf("vote %s: %w", target, ErrUnknownComment)
	}
	if st.session.CSRFToken == "" {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return ErrMissingCSRF
	}
	ctl := control{action: actVote, target: target.String()}
	if !st.acquire(ctl) {
		p.mu.Unlock()
		return ErrControlBusy
	}

	prevTally, prevVote := slot.tally(), *slot.vote
	next := prevVote.Toggle(dir)
	slot.set(prevTally.Apply(prevVote, next), next)
	session := st.session
	p.mu.Unlock()

	res, err := p.api.Vote(ctx, session, target, dir)

	p.mu.Lock()
	st.release(ctl)
	// цель могла исчезнуть, пока шел запрос
	slot, ok = st.slot(target)
	if err != nil {
		if ok {
			slot.set(prevTally, prevVote)
		}
		p.mu.Unlock()
		p.log.Warn("vote failed", zap.Stringer("target", target), zap.Error(err))
		p.notify(failureMessage(err, msgVoteFailed, msgVoteFailed))
		return fmt.Errorf("vote %s: %w", target, err)
	}
	if ok && res != nil {
		slot.set(model.Tally{Likes: res.Likes, Dislikes: res.Dislikes}, res.UserVote)
	}
	p.mu.Unlock()
	return nil
}

// SubmitReply отправляет комментарий. parentID == "" - комментарий к самому посту.
func (p *Presenter) SubmitReply(ctx context.Context, parentID, text string) (*model.Comment, error) {
	emptyMsg, failedMsg, errorMsg := msgEmptyReply, msgReplyFailed, msgReplyError
	if parentID == "" {
		emptyMsg, failedMsg, errorMsg = msgEmptyComment, msgCommentFailed, msgCommentError
	}

	content := strings.TrimSpace(text)
	if content == "" {
		p.notify(emptyMsg)
		return nil, ErrEmptyContent
	}

	p.mu.Lock()
	st := p.st
	if !st.session.Authenticated() {
		p.mu.Unlock()
		p.notify(msgLoginToComment)
		return nil, ErrNotAuthenticated
	}
	if st.post.CommentsDisabled {
		p.mu.Unlock()
		p.notify(msgCommentsDisabled)
		return nil, ErrCommentsDisabled
	}
	if parentID != "" {
		if _, ok := st.byID[parentID]; !ok {
			p.mu.Unlock()
			p.notify(msgGeneric)
			return nil, fmt.Errorf("reply to %s: %w", parentID, ErrUnknownComment)
		}
		if st.depth(parentID) >= p.maxDepth {
			p.mu.Unlock()
			p.notify(msgMaxDepth)
			return nil, ErrMaxDepth
		}
	}
	if st.session.CSRFToken == "" {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return nil, ErrMissingCSRF
	}
	ctl := control{action: actReply, target: replyTarget(st.post.ID, parentID)}
	if !st.acquire(ctl) {
		p.mu.Unlock()
		return nil, ErrControlBusy
	}
	session, postID := st.session, st.post.ID
	p.mu.Unlock()

	created, err := p.api.CreateComment(ctx, session, postID, parentID, content)

	p.mu.Lock()
	st.release(ctl)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn("create comment failed", zap.String("parent", parentID), zap.Error(err))
		p.notify(failureMessage(err, failedMsg, errorMsg))
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if created == nil {
		p.mu.Unlock()
		p.notify(failedMsg)
		return nil, errors.New("create comment: empty response")
	}
	// родителя могли удалить, пока шел запрос
	if !st.attach(created, parentID) {
		p.mu.Unlock()
		p.log.Warn("reply parent is gone", zap.String("parent", parentID), zap.String("comment", created.ID))
		p.notify(msgGeneric)
		return created, fmt.Errorf("reply to %s: %w", parentID, ErrUnknownComment)
	}
	if st.replyTo == parentID {
		st.replyTo = ""
	}
	p.mu.Unlock()
	return created, nil
}

func replyTarget(postID, parentID string) string {
	if parentID == "" {
		return "post:" + postID
	}
	return parentID
}

// ToggleReplyForm открывает форму ответа под комментарием (остальные закрываются)
// или закрывает ее, если она уже открыта. Возвращает, открыта ли форма.
func (p *Presenter) ToggleReplyForm(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.st
	if _, ok := st.byID[id]; !ok {
		return false, ErrUnknownComment
	}
	if err := p.replyBlocker(id); err != nil {
		return false, err
	}
	if st.replyTo == id {
		st.replyTo = ""
		return false, nil
	}
	st.replyTo = id
	return true, nil
}

// DeleteComment удаляет комментарий вместе с ответами после подтверждения
func (p *Presenter) DeleteComment(ctx context.Context, id string) error {
	p.mu.Lock()
	st := p.st
	c, ok := st.byID[id]
	if !ok {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return ErrUnknownComment
	}
	if !st.session.Authenticated() {
		p.mu.Unlock()
		p.notify(msgLoginToComment)
		return ErrNotAuthenticated
	}
	if !st.isAuthor(c) {
		p.mu.Unlock()
		p.notify(msgNotAuthor)
		return ErrNotAuthor
	}
	if st.session.CSRFToken == "" {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return ErrMissingCSRF
	}
	ctl := control{action: actDelete, target: id}
	if !st.acquire(ctl) {
		p.mu.Unlock()
		return ErrControlBusy
	}
	session := st.session
	p.mu.Unlock()

	if !p.confirmer.Confirm(msgConfirmDelete) {
		p.mu.Lock()
		st.release(ctl)
		p.mu.Unlock()
		return nil
	}

	_, err := p.api.DeleteComment(ctx, session, id)

	p.mu.Lock()
	st.release(ctl)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn("delete comment failed", zap.String("comment", id), zap.Error(err))
		p.notify(failureMessage(err, msgDeleteFailed, msgDeleteError))
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	st.detach(id)
	p.mu.Unlock()
	p.notify(msgDeleted)
	return nil
}

// BeginEdit переключает комментарий в режим правки
func (p *Presenter) BeginEdit(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.st
	c, ok := st.byID[id]
	if !ok {
		return ErrUnknownComment
	}
	if !st.isAuthor(c) {
		return ErrNotAuthor
	}
	if _, open := st.editing[id]; !open {
		st.editing[id] = c.Content
	}
	return nil
}

// CancelEdit закрывает правку и возвращает исходный текст без сетевого запроса
func (p *Presenter) CancelEdit(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.st
	original, open := st.editing[id]
	if !open {
		return
	}
	if c, ok := st.byID[id]; ok {
		c.Content = original
	}
	delete(st.editing, id)
}

// SaveEdit сохраняет новый текст комментария
func (p *Presenter) SaveEdit(ctx context.Context, id, text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		p.notify(msgEmptyComment)
		return ErrEmptyContent
	}

	p.mu.Lock()
	st := p.st
	c, ok := st.byID[id]
	if !ok {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return ErrUnknownComment
	}
	if !st.isAuthor(c) {
		p.mu.Unlock()
		p.notify(msgNotAuthor)
		return ErrNotAuthor
	}
	if st.session.CSRFToken == "" {
		p.mu.Unlock()
		p.notify(msgGeneric)
		return ErrMissingCSRF
	}
	ctl := control{action: actEdit, target: id}
	if !st.acquire(ctl) {
		p.mu.Unlock()
		return ErrControlBusy
	}
	session := st.session
	p.mu.Unlock()

	_, err := p.api.UpdateComment(ctx, session, id, content)

	p.mu.Lock()
	st.release(ctl)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn("update comment failed", zap.String("comment", id), zap.Error(err))
		p.notify(failureMessage(err, msgEditFailed, msgEditError))
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	if c, ok := st.byID[id]; ok {
		c.Content = content
	}
	delete(st.editing, id)
	p.mu.Unlock()
	p.notify(msgEdited)
	return nil
}
