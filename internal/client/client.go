// Package client - HTTP-клиент API форума. Реализует presenter.API.
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/VitaminP8/threadly/internal/model"
	"github.com/go-resty/resty/v2"
)

// CSRFHeader - заголовок с anti-forgery токеном сессии
const CSRFHeader = "X-CSRF-Token"

type Client struct {
	rc *resty.Client
}

// New создает клиент. Таймаут запросов не задается, используется транспорт по умолчанию.
func New(baseURL string) *Client {
	return NewWithClient(baseURL, &http.Client{})
}

func NewWithClient(baseURL string, hc *http.Client) *Client {
	rc := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) request(ctx context.Context, s model.Session) *resty.Request {
	req := c.rc.R().SetContext(ctx).SetError(&errorBody{})
	if s.Token != "" {
		req.SetAuthToken(s.Token)
	}
	if s.CSRFToken != "" {
		req.SetHeader(CSRFHeader, s.CSRFToken)
	}
	return req
}

// do выполняет запрос. Ответ не из 2xx превращается в *model.APIError.
func do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		apiErr := &model.APIError{StatusCode: code}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}
	return nil
}

type loginResponse struct {
	Token     string     `json:"token"`
	CSRFToken string     `json:"csrfToken"`
	User      model.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	var user model.User
	req := c.request(ctx, model.Session{}).
		SetBody(map[string]string{"username": username, "email": email, "password": password}).
		SetResult(&user)
	if err := do(req, resty.MethodPost, "/api/register"); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login возвращает сессию с токеном доступа и anti-forgery токеном
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	var out loginResponse
	req := c.request(ctx, model.Session{}).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out)
	if err := do(req, resty.MethodPost, "/api/login"); err != nil {
		return model.Session{}, err
	}
	return model.Session{
		UserID:    out.User.ID,
		Username:  out.User.Username,
		Token:     out.Token,
		CSRFToken: out.CSRFToken,
	}, nil
}

func (c *Client) Logout(ctx context.Context, s model.Session) error {
	return do(c.request(ctx, s), resty.MethodPost, "/api/logout")
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	CSRFToken     string `json:"csrfToken"`
}

// Session проверяет статус входа. Для анонимной сессии возвращается пустой model.Session.
func (c *Client) Session(ctx context.Context, s model.Session) (model.Session, error) {
	var out sessionResponse
	if err := do(c.request(ctx, s).SetResult(&out), resty.MethodGet, "/api/session"); err != nil {
		return model.Session{}, err
	}
	if !out.Authenticated {
		return model.Session{}, nil
	}
	return model.Session{UserID: out.UserID, Username: out.Username, Token: s.Token, CSRFToken: out.CSRFToken}, nil
}

func (c *Client) ListPosts(ctx context.Context, s model.Session) ([]*model.Post, error) {
	var posts []*model.Post
	if err := do(c.request(ctx, s).SetResult(&posts), resty.MethodGet, "/api/posts"); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost загружает пост с деревом комментариев и голосами пользователя сессии
func (c *Client) GetPost(ctx context.Context, s model.Session, id string) (*model.Post, error) {
	var post model.Post
	req := c.request(ctx, s).SetPathParam("id", id).SetResult(&post)
	if err := do(req, resty.MethodGet, "/api/posts/{id}"); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, s model.Session, title, content, category string) (*model.Post, error) {
	var post model.Post
	req := c.request(ctx, s).
		SetBody(map[string]string{"title": title, "content": content, "category": category}).
		SetResult(&post)
	if err := do(req, resty.MethodPost, "/api/posts"); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, s model.Session, id string) error {
	return do(c.request(ctx, s).SetPathParam("id", id), resty.MethodDelete, "/api/posts/{id}")
}

// SetCommentsDisabled включает или выключает комментарии поста (только автор поста)
func (c *Client) SetCommentsDisabled(ctx context.Context, s model.Session, postID string, disabled bool) error {
	path := "/api/posts/{id}/comments/enable"
	if disabled {
		path = "/api/posts/{id}/comments/disable"
	}
	return do(c.request(ctx, s).SetPathParam("id", postID), resty.MethodPost, path)
}

func (c *Client) Vote(ctx context.Context, s model.Session, target model.Target, dir model.Vote) (*model.VoteResult, error) {
	var path string
	switch target.Kind {
	case model.TargetPost:
		path = "/api/posts/{id}/vote"
	case model.TargetComment:
		path = "/api/comments/{id}/vote"
	default:
		return nil, fmt.Errorf("vote: unknown target kind %q", target.Kind)
	}

	var res model.VoteResult
	req := c.request(ctx, s).
		SetPathParam("id", target.ID).
		SetBody(map[string]string{"vote": string(dir)}).
		SetResult(&res)
	if err := do(req, resty.MethodPost, path); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateComment(ctx context.Context, s model.Session, postID, parentID, content string) (*model.Comment, error) {
	var comment model.Comment
	req := c.request(ctx, s).
		SetPathParam("id", postID).
		SetBody(map[string]string{"content": content, "parentId": parentID}).
		SetResult(&comment)
	if err := do(req, resty.MethodPost, "/api/posts/{id}/comments"); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) UpdateComment(ctx context.Context, s model.Session, id, content string) (*model.Comment, error) {
	var comment model.Comment
	req := c.request(ctx, s).
		SetPathParam("id", id).
		SetBody(map[string]string{"content": content}).
		SetResult(&comment)
	if err := do(req, resty.MethodPut, "/api/comments/{id}"); err != nil {
		return nil, err
	}
	return &comment, nil
}

type deleteResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// DeleteComment удаляет комментарий с ответами и возвращает число удаленных комментариев
func (c *Client) DeleteComment(ctx context.Context, s model.Session, id string) (int, error) {
	var out deleteResponse
	req := c.request(ctx, s).SetPathParam("id", id).SetResult(&out)
	if err := do(req, resty.MethodDelete, "/api/comments/{id}"); err != nil {
		return 0, err
	}
	return out.Removed, nil
}
