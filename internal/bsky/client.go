// Package bsky provides a client for the Bluesky AppView and PDS XRPC
// endpoints skymix needs: timeline and feed-generator pagination plus
// the record writes behind like, follow, and block.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gauthierbraillon/skymix/internal/feed"
)

const defaultBaseURL = "https://bsky.social"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// Client is an authenticated XRPC client.
type Client struct {
	session    *Session
	baseURL    string
	httpClient HTTPClient
}

// NewClient creates a client that authenticates with the given session.
func NewClient(session *Session, opts ...ClientOption) *Client {
	c := &Client{
		session:    session,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeline fetches the next page of the authenticated user's following
// timeline. An empty cursor starts at the top; an empty returned
// cursor means the timeline is exhausted.
func (c *Client) Timeline(ctx context.Context, limit int, cursor string) (feed.Page, error) {
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return c.fetchFeedPage(ctx, "app.bsky.feed.getTimeline", params)
}

// FeedByURI fetches the next page of a feed generator addressed by its
// at:// URI.
func (c *Client) FeedByURI(ctx context.Context, uri string, limit int, cursor string) (feed.Page, error) {
	params := url.Values{
		"feed":  {uri},
		"limit": {strconv.Itoa(limit)},
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return c.fetchFeedPage(ctx, "app.bsky.feed.getFeed", params)
}

func (c *Client) fetchFeedPage(ctx context.Context, method string, params url.Values) (feed.Page, error) {
	body, err := c.doGet(ctx, method, params)
	if err != nil {
		return feed.Page{}, err
	}

	var response feedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return feed.Page{}, fmt.Errorf("failed to parse %s response: %w", method, err)
	}

	items := make([]feed.Item, 0, len(response.Feed))
	for _, entry := range response.Feed {
		items = append(items, entry.Post.toItem())
	}
	return feed.Page{Items: items, Cursor: response.Cursor}, nil
}

// Like creates a like record for the post and returns the like's URI,
// which is needed to undo it later.
func (c *Client) Like(ctx context.Context, postURI, postCID string) (string, error) {
	return c.createRecord(ctx, "app.bsky.feed.like", map[string]any{
		"$type":     "app.bsky.feed.like",
		"subject":   map[string]any{"uri": postURI, "cid": postCID},
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// Unlike deletes a previously created like record.
func (c *Client) Unlike(ctx context.Context, likeURI string) error {
	return c.deleteRecord(ctx, likeURI)
}

// Follow creates a follow record for the author and returns its URI.
func (c *Client) Follow(ctx context.Context, did string) (string, error) {
	return c.createRecord(ctx, "app.bsky.graph.follow", map[string]any{
		"$type":     "app.bsky.graph.follow",
		"subject":   did,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// Block creates a block record for the author and returns its URI.
func (c *Client) Block(ctx context.Context, did string) (string, error) {
	return c.createRecord(ctx, "app.bsky.graph.block", map[string]any{
		"$type":     "app.bsky.graph.block",
		"subject":   did,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Client) createRecord(ctx context.Context, collection string, record map[string]any) (string, error) {
	payload := map[string]any{
		"repo":       c.session.DID,
		"collection": collection,
		"record":     record,
	}
	body, err := c.doPost(ctx, "com.atproto.repo.createRecord", payload)
	if err != nil {
		return "", err
	}

	var response struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse createRecord response: %w", err)
	}
	return response.URI, nil
}

func (c *Client) deleteRecord(ctx context.Context, recordURI string) error {
	collection, rkey, err := splitRecordURI(recordURI)
	if err != nil {
		return err
	}
	_, err = c.doPost(ctx, "com.atproto.repo.deleteRecord", map[string]any{
		"repo":       c.session.DID,
		"collection": collection,
		"rkey":       rkey,
	})
	return err
}

// splitRecordURI extracts the collection and record key from an
// at://did/collection/rkey URI.
func splitRecordURI(uri string) (collection, rkey string, err error) {
	trimmed := strings.TrimPrefix(uri, "at://")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 || trimmed == uri {
		return "", "", fmt.Errorf("malformed record URI %q", uri)
	}
	return parts[1], parts[2], nil
}

func (c *Client) doGet(ctx context.Context, method string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/xrpc/%s?%s", c.baseURL, method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(req)
}

func (c *Client) doPost(ctx context.Context, method string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/xrpc/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req)
}

func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.session.AccessJwt))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode)
	}
	return body, nil
}

func (c *Client) handleAPIError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication expired - please run 'skymix login' again")
	case http.StatusForbidden:
		return fmt.Errorf("access denied - check your account permissions")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded - please try again later")
	case http.StatusServiceUnavailable:
		return fmt.Errorf("service temporarily unavailable - please try again in a few minutes")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("server error - please try again later")
	default:
		return fmt.Errorf("API error (status %d) - please try again", statusCode)
	}
}

// API response types (private - implementation detail)

type feedResponse struct {
	Cursor string `json:"cursor"`
	Feed   []struct {
		Post postView `json:"post"`
	} `json:"feed"`
}

type postView struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Author struct {
		DID         string `json:"did"`
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
	Embed struct {
		Type   string `json:"$type"`
		Images []struct {
			AspectRatio struct {
				Width  int `json:"width"`
				Height int `json:"height"`
			} `json:"aspectRatio"`
		} `json:"images"`
	} `json:"embed"`
	ReplyCount  int64 `json:"replyCount"`
	RepostCount int64 `json:"repostCount"`
	LikeCount   int64 `json:"likeCount"`
	Viewer      struct {
		Like string `json:"like"`
	} `json:"viewer"`
	Labels []struct {
		Val string `json:"val"`
	} `json:"labels"`
}

// adultLabels are the moderation labels that mark a post as sensitive
// for filtering purposes.
var adultLabels = map[string]bool{
	"porn":          true,
	"sexual":        true,
	"nudity":        true,
	"graphic-media": true,
}

func (p postView) toItem() feed.Item {
	createdAt, _ := time.Parse(time.RFC3339, p.Record.CreatedAt)

	item := feed.Item{
		URI:       p.URI,
		CID:       p.CID,
		Text:      p.Record.Text,
		CreatedAt: createdAt,
		URL:       webURL(p.Author.Handle, p.URI),
		Likes:     p.LikeCount,
		Reposts:   p.RepostCount,
		Replies:   p.ReplyCount,
		Liked:     p.Viewer.Like != "",
		LikeURI:   p.Viewer.Like,
	}
	item.Author = feed.Author{
		DID:         p.Author.DID,
		Handle:      p.Author.Handle,
		DisplayName: p.Author.DisplayName,
		Avatar:      p.Author.Avatar,
	}

	if strings.HasPrefix(p.Embed.Type, "app.bsky.embed.images") {
		item.HasMedia = true
		if len(p.Embed.Images) > 0 {
			ar := p.Embed.Images[0].AspectRatio
			if ar.Width > 0 && ar.Height > 0 {
				item.AspectRatio = float64(ar.Width) / float64(ar.Height)
			}
		}
	} else if strings.HasPrefix(p.Embed.Type, "app.bsky.embed.video") {
		item.HasMedia = true
	}

	for _, label := range p.Labels {
		if adultLabels[label.Val] {
			item.Sensitive = true
			break
		}
	}
	return item
}

// webURL converts an at:// post URI into the public web link used by
// the open-in-browser action.
func webURL(handle, postURI string) string {
	parts := strings.Split(strings.TrimPrefix(postURI, "at://"), "/")
	if len(parts) != 3 || handle == "" {
		return ""
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, parts[2])
}
