// Package glpi is a read-only client for the GLPI REST API: session handling, computer paging
// and per-computer hardware components.
package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ComponentTypes are the hardware item types fetched for every computer.
var ComponentTypes = []string{
	"Item_DeviceProcessor",
	"Item_DeviceMemory",
	"Item_DeviceHardDrive",
	"Item_DeviceNetworkCard",
	"Item_DeviceGraphicCard",
	"Item_DeviceMotherboard",
	"Item_DevicePowerSupply",
}

const componentFetchConcurrency = 4

// ErrNoSessionToken is returned when initSession answers without a session_token.
var ErrNoSessionToken = errors.New("glpi: initSession returned no session token")

// StatusError is a non-2xx answer from GLPI.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("glpi: GET %s: status %d: %s", e.Path, e.Code, e.Body)
}

// Client talks to one GLPI instance.
type Client struct {
	baseURL   string
	appToken  string
	userToken string
	http      *http.Client
}

// NewClient returns a client for baseURL (the apirest.php root). httpClient may be nil.
func NewClient(baseURL, appToken, userToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		appToken:  appToken,
		userToken: userToken,
		http:      httpClient,
	}
}

// Session is an open GLPI session. It is safe for concurrent use.
type Session struct {
	c     *Client
	token string

	closeOnce sync.Once
}

// Open calls initSession with the user token.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	var out struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.get(ctx, "/initSession", nil, http.Header{"Authorization": {"user_token " + c.userToken}}, &out); err != nil {
		return nil, err
	}
	if out.SessionToken == "" {
		return nil, ErrNoSessionToken
	}
	return &Session{c: c, token: out.SessionToken}, nil
}

// Close calls killSession once.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = s.get(ctx, "/killSession", nil, nil)
	})
	return err
}

// Computers returns the raw computers in [start, start+limit).
func (s *Session) Computers(ctx context.Context, start, limit int) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("range", fmt.Sprintf("%d-%d", start, start+limit-1))
	q.Set("expand_dropdowns", "true")
	var out []json.RawMessage
	if err := s.get(ctx, "/Computer", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ComputerItems returns the computer's items of itemType. A 404 means none.
func (s *Session) ComputerItems(ctx context.Context, computerID int64, itemType string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("expand_dropdowns", "true")
	var out []json.RawMessage
	err := s.get(ctx, "/Computer/"+strconv.FormatInt(computerID, 10)+"/"+itemType, q, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	return out, err
}

// Components fetches every ComponentTypes list of the computer concurrently. Types without items
// are omitted from the result.
func (s *Session) Components(ctx context.Context, computerID int64) (map[string][]json.RawMessage, error) {
	out := make(map[string][]json.RawMessage, len(ComponentTypes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(componentFetchConcurrency)
	for _, itemType := range ComponentTypes {
		g.Go(func() error {
			items, err := s.ComputerItems(ctx, computerID, itemType)
			if err != nil {
				return fmt.Errorf("%s: %w", itemType, err)
			}
			if len(items) > 0 {
				mu.Lock()
				out[itemType] = items
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) get(ctx context.Context, path string, q url.Values, dst any) error {
	return s.c.get(ctx, path, q, http.Header{"Session-Token": {s.token}}, dst)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, h http.Header, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h {
		req.Header[k] = v
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("glpi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("glpi: decode %s: %w", path, err)
	}
	return nil
}
