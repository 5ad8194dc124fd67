// Package api — HTTP-клиент REST API user-management для терминального клиента.
//
// Токен берётся из хранилища сессии при каждом запросе и передаётся
// в заголовке Authorization только когда он есть. Ответ 401 на запрос
// с токеном завершает сессию.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/user-management/internal/client/session"
	"github.com/magabrotheeeer/user-management/internal/models"
)

const defaultTimeout = 10 * time.Second

// ErrSessionExpired возвращается, когда сервер отклонил токен и сессия была сброшена.
var ErrSessionExpired = errors.New("session expired, please log in again")

// Error — ответ сервера с кодом ошибки.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// SessionStore — источник токена и сброс сессии.
type SessionStore interface {
	Token() string
	Logout() error
}

// Client вызывает REST API.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт http.Client, например из httptest.Server.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New создаёт клиент для сервера baseURL, например http://localhost:3000.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	ID       string      `json:"id"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Token    string      `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.Projection `json:"user"`
}

// ProfileUpdate — изменяемые поля профиля, пустые поля не отправляются.
type ProfileUpdate struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// UsersPage — страница списка пользователей.
type UsersPage struct {
	Users      []models.Projection `json:"users"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup регистрирует учётную запись и возвращает готовую сессию.
func (c *Client) Signup(ctx context.Context, fullName, email, password string) (*session.Session, error) {
	const op = "api.Signup"
	var resp signupResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", signupRequest{
		FullName: fullName, Email: email, Password: password,
	}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session.Session{
		Account: models.Projection{
			ID:       resp.ID,
			FullName: resp.FullName,
			Email:    resp.Email,
			Role:     resp.Role,
		},
		Token: resp.Token,
	}, nil
}

// Login выполняет вход и возвращает готовую сессию.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	const op = "api.Login"
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session.Session{Account: resp.User, Token: resp.Token}, nil
}

// Profile возвращает профиль текущего пользователя.
func (c *Client) Profile(ctx context.Context) (*models.Projection, error) {
	const op = "api.Profile"
	var resp models.Projection
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// UpdateProfile изменяет профиль текущего пользователя.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.Projection, error) {
	const op = "api.UpdateProfile"
	var resp models.Projection
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", upd, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// ListUsers возвращает страницу пользователей. Нулевые page и limit
// не передаются, сервер подставит значения по умолчанию.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*UsersPage, error) {
	const op = "api.ListUsers"
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp UsersPage
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// SetStatus меняет статус учётной записи id и возвращает сообщение сервера.
func (c *Client) SetStatus(ctx context.Context, id string, status models.Status) (string, error) {
	const op = "api.SetStatus"
	var resp messageResponse
	path := "/api/admin/users/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, statusRequest{Status: status}, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.store.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var msg messageResponse
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			if err := c.store.Logout(); err != nil {
				return fmt.Errorf("%w: %w", apiErr, err)
			}
			return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
