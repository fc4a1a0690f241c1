package presenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/VitaminP8/threadly/internal/mocks"
	"github.com/VitaminP8/threadly/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedSession() model.Session {
	return model.Session{UserID: "1", Username: "alice", Token: "token", CSRFToken: "csrf-token"}
}

// chainPost строит пост с цепочкой c0 -> c1 -> ... -> c(n-1)
func chainPost(n int) *model.Post {
	post := &model.Post{ID: "3", Title: "Chain", AuthorID: "2", Author: "bob"}
	var parent *model.Comment
	for i := 0; i < n; i++ {
		c := &model.Comment{ID: fmt.Sprintf("c%d", i), AuthorID: "1", Author: "alice", Content: fmt.Sprintf("level %d", i)}
		if parent == nil {
			post.Comments = append(post.Comments, c)
		} else {
			parent.Children = append(parent.Children, c)
		}
		parent = c
	}
	return post
}

// treePost: c1 (c2 (c3), c4) и c5 - всего 5 комментариев
func treePost() *model.Post {
	return &model.Post{
		ID:    "3",
		Title: "Tree",
		Comments: []*model.Comment{
			{ID: "c1", AuthorID: "1", Content: "root", Children: []*model.Comment{
				{ID: "c2", AuthorID: "2", Content: "child", Children: []*model.Comment{
					{ID: "c3", AuthorID: "1", Content: "grandchild"},
				}},
				{ID: "c4", AuthorID: "1", Content: "second child"},
			}},
			{ID: "c5", AuthorID: "2", Content: "other root"},
		},
	}
}

func newTestPresenter(post *model.Post, session model.Session, opts ...Option) (*Presenter, *mocks.MockForumAPI, *mocks.MockNotifier) {
	api := mocks.NewMockForumAPI()
	notifier := mocks.NewMockNotifier()
	opts = append([]Option{WithNotifier(notifier)}, opts...)
	return New(post, session, api, opts...), api, notifier
}

func findView(views []CommentView, id string) (CommentView, bool) {
	for _, v := range views {
		if v.ID == id {
			return v, true
		}
		if found, ok := findView(v.Replies, id); ok {
			return found, true
		}
	}
	return CommentView{}, false
}

func TestPresenter_Depth(t *testing.T) {
	p, api, notifier := newTestPresenter(chainPost(5), authedSession())

	t.Run("Depth equals number of ancestors", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			d, err := p.Depth(fmt.Sprintf("c%d", i))
			require.NoError(t, err)
			assert.Equal(t, i, d)
		}
	})

	t.Run("Unknown comment", func(t *testing.T) {
		_, err := p.Depth("missing")
		assert.ErrorIs(t, err, ErrUnknownComment)
	})

	t.Run("Reply affordance stops at max depth", func(t *testing.T) {
		view := p.View()

		deep, ok := findView(view.Comments, "c4")
		require.True(t, ok)
		assert.Equal(t, 4, deep.Depth)
		assert.False(t, deep.CanReply)

		parent, ok := findView(view.Comments, "c3")
		require.True(t, ok)
		assert.Equal(t, 3, parent.Depth)
		assert.True(t, parent.CanReply)
		assert.Equal(t, 3*indentStep, parent.Indent)
	})

	t.Run("Reply under max depth is refused without a request", func(t *testing.T) {
		_, err := p.ToggleReplyForm("c4")
		assert.ErrorIs(t, err, ErrMaxDepth)

		_, err = p.SubmitReply(context.Background(), "c4", "too deep")
		assert.ErrorIs(t, err, ErrMaxDepth)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgMaxDepth, notifier.Last())
	})

	t.Run("Custom max depth", func(t *testing.T) {
		shallow, _, _ := newTestPresenter(chainPost(3), authedSession(), WithMaxDepth(1))
		view := shallow.View()
		c0, _ := findView(view.Comments, "c0")
		c1, _ := findView(view.Comments, "c1")
		assert.True(t, c0.CanReply)
		assert.False(t, c1.CanReply)
	})
}

func TestState_DepthCycleGuard(t *testing.T) {
	st := newState(&model.Post{ID: "1", Comments: []*model.Comment{{ID: "a"}, {ID: "b"}}}, model.Session{})
	st.parentOf["a"] = "b"
	st.parentOf["b"] = "a"

	d := st.depth("a")
	assert.LessOrEqual(t, d, len(st.byID)+1)
}

func TestNew_NormalizesParentLinks(t *testing.T) {
	wrong := "nonsense"
	post := &model.Post{ID: "3", Comments: []*model.Comment{
		{ID: "1", ParentID: &wrong, Children: []*model.Comment{{ID: "2"}}},
	}}
	p, _, _ := newTestPresenter(post, authedSession())

	assert.Nil(t, post.Comments[0].ParentID)
	require.NotNil(t, post.Comments[0].Children[0].ParentID)
	assert.Equal(t, "1", *post.Comments[0].Children[0].ParentID)
	assert.Equal(t, "3", post.Comments[0].Children[0].PostID)
	assert.Equal(t, 2, p.CommentCount())
	assert.Equal(t, 2, post.CommentCount)
}

func TestPresenter_Vote(t *testing.T) {
	ctx := context.Background()

	t.Run("Unauthenticated vote issues no request", func(t *testing.T) {
		post := &model.Post{ID: "3", Likes: 2, Dislikes: 1}
		p, api, notifier := newTestPresenter(post, model.Session{CSRFToken: "csrf-token"})

		err := p.Vote(ctx, model.PostTarget("3"), model.VoteUp)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, []string{"Please log in to vote"}, notifier.Messages())

		view := p.View()
		assert.Equal(t, 2, view.Likes)
		assert.Equal(t, 1, view.Dislikes)
		assert.False(t, view.UpActive)
		assert.False(t, view.VotingEnabled)
	})

	t.Run("Up twice clears the vote", func(t *testing.T) {
		post := &model.Post{ID: "3", Likes: 2}
		p, api, _ := newTestPresenter(post, authedSession())
		api.SeedVote(model.PostTarget("3"), model.Tally{Likes: 2}, model.VoteNone)

		require.NoError(t, p.Vote(ctx, model.PostTarget("3"), model.VoteUp))
		view := p.View()
		assert.Equal(t, 3, view.Likes)
		assert.True(t, view.UpActive)

		require.NoError(t, p.Vote(ctx, model.PostTarget("3"), model.VoteUp))
		view = p.View()
		assert.Equal(t, 2, view.Likes)
		assert.False(t, view.UpActive)
		assert.False(t, view.DownActive)
		assert.Equal(t, 2, api.CallCount())
	})

	t.Run("Opposite direction flips the vote", func(t *testing.T) {
		post := treePost()
		p, api, _ := newTestPresenter(post, authedSession())
		target := model.CommentTarget("c2")
		api.SeedVote(target, model.Tally{}, model.VoteNone)

		require.NoError(t, p.Vote(ctx, target, model.VoteUp))
		require.NoError(t, p.Vote(ctx, target, model.VoteDown))

		c2, ok := findView(p.View().Comments, "c2")
		require.True(t, ok)
		assert.Equal(t, 0, c2.Likes)
		assert.Equal(t, 1, c2.Dislikes)
		assert.True(t, c2.DownActive)
		assert.False(t, c2.UpActive)
	})

	t.Run("Server result wins over the optimistic value", func(t *testing.T) {
		post := &model.Post{ID: "3", Likes: 2}
		p, api, _ := newTestPresenter(post, authedSession())
		// пока страница была открыта, проголосовали другие
		api.SeedVote(model.PostTarget("3"), model.Tally{Likes: 10, Dislikes: 4}, model.VoteNone)

		require.NoError(t, p.Vote(ctx, model.PostTarget("3"), model.VoteUp))
		view := p.View()
		assert.Equal(t, 11, view.Likes)
		assert.Equal(t, 4, view.Dislikes)
	})

	t.Run("Failed vote rolls back", func(t *testing.T) {
		post := &model.Post{ID: "3", Likes: 5, Dislikes: 2, UserVote: model.VoteDown}
		p, api, notifier := newTestPresenter(post, authedSession())
		api.Err = errors.New("connection refused")

		err := p.Vote(ctx, model.PostTarget("3"), model.VoteUp)
		require.Error(t, err)

		view := p.View()
		assert.Equal(t, 5, view.Likes)
		assert.Equal(t, 2, view.Dislikes)
		assert.True(t, view.DownActive)
		assert.False(t, view.VoteBusy)
		assert.Equal(t, msgVoteFailed, notifier.Last())
	})

	t.Run("Server message is shown", func(t *testing.T) {
		p, api, notifier := newTestPresenter(&model.Post{ID: "3"}, authedSession())
		api.Err = &model.APIError{StatusCode: 403, Message: "Invalid CSRF token"}

		err := p.Vote(ctx, model.PostTarget("3"), model.VoteDown)
		var apiErr *model.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Invalid CSRF token", notifier.Last())
	})

	t.Run("Missing anti-forgery token", func(t *testing.T) {
		session := authedSession()
		session.CSRFToken = ""
		p, api, notifier := newTestPresenter(&model.Post{ID: "3"}, session)

		err := p.Vote(ctx, model.PostTarget("3"), model.VoteUp)
		assert.ErrorIs(t, err, ErrMissingCSRF)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgGeneric, notifier.Last())
	})

	t.Run("Unknown target", func(t *testing.T) {
		p, api, _ := newTestPresenter(treePost(), authedSession())
		err := p.Vote(ctx, model.CommentTarget("nope"), model.VoteUp)
		assert.ErrorIs(t, err, ErrUnknownComment)
		assert.Equal(t, 0, api.CallCount())
	})
}

func TestPresenter_BusyControl(t *testing.T) {
	ctx := context.Background()

	t.Run("Second vote while in flight issues no request", func(t *testing.T) {
		p, api, _ := newTestPresenter(&model.Post{ID: "3"}, authedSession())
		api.Block = make(chan struct{})

		done := make(chan error, 1)
		go func() { done <- p.Vote(ctx, model.PostTarget("3"), model.VoteUp) }()
		require.Eventually(t, func() bool { return api.CallCount() == 1 }, time.Second, time.Millisecond)

		assert.True(t, p.View().VoteBusy)
		err := p.Vote(ctx, model.PostTarget("3"), model.VoteDown)
		assert.ErrorIs(t, err, ErrControlBusy)
		assert.Equal(t, 1, api.CallCount())

		close(api.Block)
		require.NoError(t, <-done)
		view := p.View()
		assert.False(t, view.VoteBusy)
		assert.Equal(t, 1, view.Likes)
	})

	t.Run("Second reply to the same parent while in flight", func(t *testing.T) {
		p, api, _ := newTestPresenter(treePost(), authedSession())
		api.Block = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			_, err := p.SubmitReply(ctx, "c1", "first")
			done <- err
		}()
		require.Eventually(t, func() bool { return api.CallCount() == 1 }, time.Second, time.Millisecond)

		c1, _ := findView(p.View().Comments, "c1")
		assert.True(t, c1.ReplyBusy)

		_, err := p.SubmitReply(ctx, "c1", "second")
		assert.ErrorIs(t, err, ErrControlBusy)
		assert.Equal(t, 1, api.CallCount())

		close(api.Block)
		require.NoError(t, <-done)
		assert.Equal(t, 6, p.CommentCount())
	})

	t.Run("Cancelled request releases the control", func(t *testing.T) {
		p, api, _ := newTestPresenter(&model.Post{ID: "3", Likes: 1}, authedSession())
		api.Block = make(chan struct{})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := p.Vote(cctx, model.PostTarget("3"), model.VoteUp)
		assert.ErrorIs(t, err, context.Canceled)

		view := p.View()
		assert.False(t, view.VoteBusy)
		assert.Equal(t, 1, view.Likes)
	})
}

func TestPresenter_SubmitReply(t *testing.T) {
	ctx := context.Background()

	t.Run("Reply to comment 7 on post 3", func(t *testing.T) {
		post := &model.Post{ID: "3", Comments: []*model.Comment{{ID: "7", AuthorID: "2", Content: "parent"}}}
		p, api, _ := newTestPresenter(post, authedSession())

		opened, err := p.ToggleReplyForm("7")
		require.NoError(t, err)
		require.True(t, opened)

		created, err := p.SubmitReply(ctx, "7", "nice work")
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, 2, p.CommentCount())
		require.NotNil(t, created.ParentID)
		assert.Equal(t, "7", *created.ParentID)
		require.Len(t, post.Comments[0].Children, 1)
		assert.Equal(t, created.ID, post.Comments[0].Children[0].ID)

		d, err := p.Depth(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, d)

		calls := api.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, mocks.APICall{Method: "CreateComment", Target: "3", ParentID: "7", Content: "nice work"}, calls[0])

		view := p.View()
		assert.Equal(t, 2, view.CommentCount)
		parent, _ := findView(view.Comments, "7")
		assert.False(t, parent.ReplyOpen)
	})

	t.Run("Top-level comment is appended last", func(t *testing.T) {
		post := treePost()
		p, _, _ := newTestPresenter(post, authedSession())

		created, err := p.SubmitReply(ctx, "", "  hello  ")
		require.NoError(t, err)
		assert.Equal(t, "hello", created.Content)
		assert.Equal(t, created.ID, post.Comments[len(post.Comments)-1].ID)
		assert.Nil(t, created.ParentID)
		assert.Equal(t, 6, p.CommentCount())
	})

	t.Run("Empty text issues no request", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession())

		_, err := p.SubmitReply(ctx, "", "   ")
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.Equal(t, msgEmptyComment, notifier.Last())

		_, err = p.SubmitReply(ctx, "c1", "\n\t")
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.Equal(t, msgEmptyReply, notifier.Last())

		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, 5, p.CommentCount())
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), model.Session{})
		_, err := p.SubmitReply(ctx, "c1", "hi")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgLoginToComment, notifier.Last())
	})

	t.Run("Comments disabled", func(t *testing.T) {
		post := treePost()
		post.CommentsDisabled = true
		p, api, _ := newTestPresenter(post, authedSession())

		_, err := p.SubmitReply(ctx, "c1", "hi")
		assert.ErrorIs(t, err, ErrCommentsDisabled)
		assert.Equal(t, 0, api.CallCount())

		view := p.View()
		assert.False(t, view.CanComment)
		c1, _ := findView(view.Comments, "c1")
		assert.False(t, c1.CanReply)
	})

	t.Run("Missing anti-forgery token", func(t *testing.T) {
		session := authedSession()
		session.CSRFToken = ""
		p, api, notifier := newTestPresenter(treePost(), session)

		_, err := p.SubmitReply(ctx, "c1", "hi")
		assert.ErrorIs(t, err, ErrMissingCSRF)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgGeneric, notifier.Last())
	})

	t.Run("Failure messages", func(t *testing.T) {
		cases := []struct {
			name string
			err  error
			want string
		}{
			{"server message", &model.APIError{StatusCode: 400, Message: "Comment is too long"}, "Comment is too long"},
			{"server without message", &model.APIError{StatusCode: 500}, msgReplyFailed},
			{"transport", errors.New("dial tcp: connection refused"), msgReplyError},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				p, api, notifier := newTestPresenter(treePost(), authedSession())
				api.Err = tc.err

				_, err := p.SubmitReply(ctx, "c1", "hi")
				require.Error(t, err)
				assert.Equal(t, tc.want, notifier.Last())
				assert.Equal(t, 5, p.CommentCount())
			})
		}
	})
}

func TestPresenter_ToggleReplyForm(t *testing.T) {
	p, _, _ := newTestPresenter(treePost(), authedSession())

	opened, err := p.ToggleReplyForm("c1")
	require.NoError(t, err)
	assert.True(t, opened)

	// открытие другой формы закрывает первую
	opened, err = p.ToggleReplyForm("c5")
	require.NoError(t, err)
	assert.True(t, opened)

	view := p.View()
	c1, _ := findView(view.Comments, "c1")
	c5, _ := findView(view.Comments, "c5")
	assert.False(t, c1.ReplyOpen)
	assert.True(t, c5.ReplyOpen)

	opened, err = p.ToggleReplyForm("c5")
	require.NoError(t, err)
	assert.False(t, opened)

	_, err = p.ToggleReplyForm("missing")
	assert.ErrorIs(t, err, ErrUnknownComment)

	anon, _, _ := newTestPresenter(treePost(), model.Session{})
	_, err = anon.ToggleReplyForm("c1")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestPresenter_DeleteComment(t *testing.T) {
	ctx := context.Background()
	yes := WithConfirmer(ConfirmerFunc(func(string) bool { return true }))

	t.Run("Removes subtree and decreases counter by its size", func(t *testing.T) {
		post := treePost()
		var prompt string
		confirm := WithConfirmer(ConfirmerFunc(func(q string) bool {
			prompt = q
			return true
		}))
		p, api, notifier := newTestPresenter(post, authedSession(), confirm)
		api.Removed = 4

		require.NoError(t, p.DeleteComment(ctx, "c1"))

		assert.Equal(t, msgConfirmDelete, prompt)
		// c1 и три потомка
		assert.Equal(t, 1, p.CommentCount())
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c5", post.Comments[0].ID)
		for _, id := range []string{"c1", "c2", "c3", "c4"} {
			_, err := p.Depth(id)
			assert.ErrorIs(t, err, ErrUnknownComment, id)
		}
		assert.Equal(t, "Comment deleted successfully", notifier.Last())
		assert.Equal(t, 1, p.View().CommentCount)
	})

	t.Run("Leaf delete", func(t *testing.T) {
		p, _, _ := newTestPresenter(treePost(), authedSession(), yes)
		require.NoError(t, p.DeleteComment(ctx, "c3"))
		assert.Equal(t, 4, p.CommentCount())
	})

	t.Run("Declined confirmation does nothing", func(t *testing.T) {
		no := WithConfirmer(ConfirmerFunc(func(string) bool { return false }))
		p, api, _ := newTestPresenter(treePost(), authedSession(), no)

		require.NoError(t, p.DeleteComment(ctx, "c1"))
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, 5, p.CommentCount())
	})

	t.Run("Without confirmer nothing is deleted", func(t *testing.T) {
		p, api, _ := newTestPresenter(treePost(), authedSession())
		require.NoError(t, p.DeleteComment(ctx, "c1"))
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, 5, p.CommentCount())
	})

	t.Run("Only the author may delete", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession(), yes)
		err := p.DeleteComment(ctx, "c2")
		assert.ErrorIs(t, err, ErrNotAuthor)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgNotAuthor, notifier.Last())

		c2, _ := findView(p.View().Comments, "c2")
		assert.False(t, c2.CanModify)
	})

	t.Run("Failure leaves the tree unchanged", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession(), yes)
		api.Err = &model.APIError{StatusCode: 500}

		require.Error(t, p.DeleteComment(ctx, "c1"))
		assert.Equal(t, 5, p.CommentCount())
		assert.Equal(t, msgDeleteFailed, notifier.Last())

		d, err := p.Depth("c3")
		require.NoError(t, err)
		assert.Equal(t, 2, d)
	})

	t.Run("Delete closes the reply form inside the subtree", func(t *testing.T) {
		p, _, _ := newTestPresenter(treePost(), authedSession(), yes)
		_, err := p.ToggleReplyForm("c3")
		require.NoError(t, err)

		require.NoError(t, p.DeleteComment(ctx, "c1"))
		_, err = p.ToggleReplyForm("c3")
		assert.ErrorIs(t, err, ErrUnknownComment)
	})
}

func TestPresenter_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancel restores the original without a request", func(t *testing.T) {
		p, api, _ := newTestPresenter(treePost(), authedSession())

		require.NoError(t, p.BeginEdit("c1"))
		c1, _ := findView(p.View().Comments, "c1")
		assert.True(t, c1.Editing)
		assert.Equal(t, "root", c1.EditText)

		p.CancelEdit("c1")
		c1, _ = findView(p.View().Comments, "c1")
		assert.False(t, c1.Editing)
		assert.Equal(t, "root", c1.Content)
		assert.Equal(t, 0, api.CallCount())
	})

	t.Run("Save replaces the text", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession())

		require.NoError(t, p.BeginEdit("c1"))
		require.NoError(t, p.SaveEdit(ctx, "c1", "  updated  "))

		c1, _ := findView(p.View().Comments, "c1")
		assert.False(t, c1.Editing)
		assert.Equal(t, "updated", c1.Content)
		assert.Equal(t, msgEdited, notifier.Last())

		calls := api.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, mocks.APICall{Method: "UpdateComment", Target: "c1", Content: "updated"}, calls[0])
	})

	t.Run("Empty edit issues no request", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession())
		require.NoError(t, p.BeginEdit("c1"))

		err := p.SaveEdit(ctx, "c1", "   ")
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.Equal(t, 0, api.CallCount())
		assert.Equal(t, msgEmptyComment, notifier.Last())

		c1, _ := findView(p.View().Comments, "c1")
		assert.True(t, c1.Editing)
	})

	t.Run("Failed save keeps the editor open", func(t *testing.T) {
		p, api, notifier := newTestPresenter(treePost(), authedSession())
		api.Err = errors.New("timeout")
		require.NoError(t, p.BeginEdit("c1"))

		require.Error(t, p.SaveEdit(ctx, "c1", "changed"))
		c1, _ := findView(p.View().Comments, "c1")
		assert.True(t, c1.Editing)
		assert.Equal(t, "root", c1.Content)
		assert.Equal(t, msgEditError, notifier.Last())
	})

	t.Run("Only the author may edit", func(t *testing.T) {
		p, api, _ := newTestPresenter(treePost(), authedSession())
		assert.ErrorIs(t, p.BeginEdit("c2"), ErrNotAuthor)
		assert.ErrorIs(t, p.SaveEdit(ctx, "c2", "mine now"), ErrNotAuthor)
		assert.Equal(t, 0, api.CallCount())
	})
}

func TestPresenter_Render(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	post := chainPost(5)
	post.CreatedAt = now.Add(-2 * time.Hour)
	post.Comments[0].Content = "<script>alert(1)</script>"
	p, _, _ := newTestPresenter(post, authedSession(), withClock(func() time.Time { return now }))

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	html := buf.String()

	assert.Contains(t, html, `data-post-id="3"`)
	assert.Contains(t, html, `value="csrf-token"`)
	assert.Contains(t, html, "2 hours ago")
	assert.Contains(t, html, `<span class="counter">5</span>`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	// c0..c3 можно ответить, c4 - нет
	assert.Equal(t, 4, strings.Count(html, `class="reply-button"`))
	assert.Contains(t, html, `class="comment depth-4"`)

	t.Run("Anonymous view has disabled votes and no options", func(t *testing.T) {
		anon, _, _ := newTestPresenter(chainPost(2), model.Session{})
		var buf bytes.Buffer
		require.NoError(t, anon.Render(&buf))
		html := buf.String()
		assert.Contains(t, html, `data-vote="up" disabled`)
		assert.NotContains(t, html, "reply-button")
		assert.NotContains(t, html, "delete-comment-")
		assert.NotContains(t, html, "commentText")
	})
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 min ago"},
		{5 * time.Minute, "5 mins ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{40 * 24 * time.Hour, "Jan 30, 2024"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, timeAgo(now.Add(-tc.ago), now), tc.ago.String())
	}
	assert.Equal(t, "", timeAgo(time.Time{}, now))
}

func TestPresenter_InvalidVoteDirection(t *testing.T) {
	for _, dir := range []model.Vote{model.VoteNone, model.Vote("sideways")} {
		t.Run(fmt.Sprintf("%q", dir), func(t *testing.T) {
			p, api, notifier := newTestPresenter(&model.Post{ID: "3", Likes: 1}, authedSession())

			err := p.Vote(context.Background(), model.PostTarget("3"), dir)
			assert.ErrorIs(t, err, ErrInvalidVote)
			assert.Equal(t, 0, api.CallCount())
			assert.Equal(t, []string{msgGeneric}, notifier.Messages())
			assert.Equal(t, 1, p.View().Likes)
		})
	}
}

// deletingAPI удаляет комментарий в презентере, пока ответ на него еще в пути
type deletingAPI struct {
	*mocks.MockForumAPI
	onReply func()
}

func (a *deletingAPI) CreateComment(ctx context.Context, s model.Session, postID, parentID, content string) (*model.Comment, error) {
	c, err := a.MockForumAPI.CreateComment(ctx, s, postID, parentID, content)
	a.onReply()
	return c, err
}

func TestPresenter_SubmitReply_ParentDeletedInFlight(t *testing.T) {
	ctx := context.Background()
	notifier := mocks.NewMockNotifier()
	api := &deletingAPI{MockForumAPI: mocks.NewMockForumAPI()}
	api.Removed = 4
	p := New(treePost(), authedSession(), api,
		WithNotifier(notifier),
		WithConfirmer(ConfirmerFunc(func(string) bool { return true })),
	)
	api.onReply = func() { require.NoError(t, p.DeleteComment(ctx, "c1")) }

	created, err := p.SubmitReply(ctx, "c2", "too late")
	assert.ErrorIs(t, err, ErrUnknownComment)
	require.NotNil(t, created)

	assert.Equal(t, 1, p.CommentCount())
	_, shown := findView(p.View().Comments, created.ID)
	assert.False(t, shown)
	assert.Equal(t, []string{msgDeleted, msgGeneric}, notifier.Messages())
}
