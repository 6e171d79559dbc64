// Package adminclient talks to the admin API on behalf of a dashboard.
//
// Client implements session.Provider and session.OperatorStore, so a
// session.Gate or session.Holder can sit directly on top of it.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
	"github.com/Skotchmaster/resto_admin/pkg/session"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	access  string
	refresh string
	user    *session.User
	subs    map[int]func(*session.User)
	nextSub int
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		subs: map[int]func(*session.User){},
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.User, error) {
	var resp tokenResponse
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, authError("sign_in", err, map[int]session.Kind{
			http.StatusUnauthorized: session.KindInvalidCredentials,
			http.StatusBadRequest:   session.KindInvalidInput,
		})
	}
	u := resp.Session.User
	if u == nil {
		return nil, &session.AuthError{Op: "sign_in", Kind: session.KindInvalidCredentials}
	}
	c.setSession(resp.AccessToken, resp.RefreshToken, u)
	return u, nil
}

// SubscribeAuthChanges delivers the current user right away, then every
// sign in and sign out made through this client.
func (c *Client) SubscribeAuthChanges(fn func(*session.User)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	u := c.user
	c.mu.Unlock()

	fn(u)
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SignOut revokes the refresh token on the server and forgets the local
// session. Signing out twice is not an error.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refresh, wasSignedIn := c.refresh, c.user != nil
	c.mu.Unlock()

	if refresh != "" {
		err := c.call(ctx, http.MethodPost, "/api/v1/auth/logout", "", refreshRequest{RefreshToken: refresh}, nil)
		var apiErr *APIError
		if err != nil && !errors.As(err, &apiErr) {
			return &session.AuthError{Op: "sign_out", Kind: session.KindNetwork, Err: err}
		}
	}
	if wasSignedIn {
		c.setSession("", "", nil)
	}
	return nil
}

func (c *Client) SendReset(ctx context.Context, email string) error {
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/password-reset", "", emailRequest{Email: email}, nil)
	if err != nil {
		return authError("password_reset", err, map[int]session.Kind{
			http.StatusNotFound:   session.KindUnregistered,
			http.StatusBadRequest: session.KindInvalidInput,
		})
	}
	return nil
}

// Refresh rotates the token pair. A rejected refresh token signs the client out.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh == "" {
		return &APIError{Status: http.StatusUnauthorized, Message: "not signed in"}
	}

	var resp tokenResponse
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/refresh", "", refreshRequest{RefreshToken: refresh}, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.setSession("", "", nil)
		return err
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.access, c.refresh = resp.AccessToken, resp.RefreshToken
	c.mu.Unlock()
	return nil
}

// AccessToken returns the current bearer token, empty when signed out.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// Operator returns nil, nil when uid has no operator record.
func (c *Client) Operator(ctx context.Context, uid string) (*domain.Operator, error) {
	var op domain.Operator
	err := c.authed(ctx, http.MethodGet, "/api/v1/auth/operators/"+url.PathEscape(uid), nil, &op)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// TouchLastLogin records the marker for the signed-in user. The server
// stamps its own clock, so at is only used by local stores.
func (c *Client) TouchLastLogin(ctx context.Context, uid string, at time.Time) error {
	c.mu.Lock()
	u := c.user
	c.mu.Unlock()
	if u == nil || u.UID != uid {
		return fmt.Errorf("touch last login: %s is not the signed-in user", uid)
	}
	return c.authed(ctx, http.MethodPost, "/api/v1/auth/session/last-login", nil, nil)
}

func (c *Client) ListOrders(ctx context.Context, status domain.OrderStatus, page, size int) ([]domain.Order, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if size > 0 {
		q.Set("size", fmt.Sprint(size))
	}
	path := "/api/v1/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Data []domain.Order `json:"data"`
	}
	if err := c.authed(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	var o domain.Order
	if err := c.authed(ctx, http.MethodPost, "/api/v1/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var o domain.Order
	path := "/api/v1/orders/" + url.PathEscape(id) + "/status"
	if err := c.authed(ctx, http.MethodPost, path, statusRequest{Status: string(status)}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var st domain.DashboardStats
	if err := c.authed(ctx, http.MethodGet, "/api/v1/dashboard/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) setSession(access, refresh string, u *session.User) {
	c.mu.Lock()
	c.access, c.refresh, c.user = access, refresh, u
	subs := make([]func(*session.User), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

// authed sends the bearer token and retries once after a refresh when the
// access token has expired.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	err := c.call(ctx, method, path, c.AccessToken(), body, out)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return c.call(ctx, method, path, c.AccessToken(), body, out)
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authError maps known statuses to a session kind. Anything else, including
// transport failures, counts as a network error.
func authError(op string, err error, kinds map[int]session.Kind) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if k, ok := kinds[apiErr.Status]; ok {
			return &session.AuthError{Op: op, Kind: k, Err: err}
		}
	}
	return &session.AuthError{Op: op, Kind: session.KindNetwork, Err: err}
}
