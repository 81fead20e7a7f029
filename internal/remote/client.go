// Package remote implements the course-platform data service API client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pgale/dripplay/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Dripplay/1.0"
)

// Client implements domain.CatalogRepository, domain.ProgressRepository and
// domain.BookmarkRepository against the remote data/storage service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new data service API client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated HTTP request and returns the response
// body. A nil body is returned together with domain sentinels for offline,
// auth and not-found conditions.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return body, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusNotFound:
		return nil, domain.ErrItemNotFound
	default:
		c.logger.Error("api request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// === Catalog ===

// GetCollectionTimestamp returns the collection's last-modified server
// timestamp without fetching its contents
func (c *Client) GetCollectionTimestamp(ctx context.Context, collectionID string) (int64, error) {
	path := fmt.Sprintf("/api/v1/collections/%s", url.PathEscape(collectionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}

	var dto collectionDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return dto.UpdatedAt, nil
}

// ListTrackItems returns the ordered items of a flat track playlist plus the
// server's last-modified timestamp
func (c *Client) ListTrackItems(ctx context.Context, collectionID string) ([]*domain.ContentItem, int64, error) {
	path := fmt.Sprintf("/api/v1/collections/%s/tracks", url.PathEscape(collectionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, 0, err
	}

	var resp trackListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	items := make([]*domain.ContentItem, 0, len(resp.Items))
	for _, dto := range resp.Items {
		items = append(items, toContentItem(dto, collectionID))
	}
	return items, resp.UpdatedAt, nil
}

// ListModuleItems returns the ordered entries of a module collection plus
// the server's last-modified timestamp
func (c *Client) ListModuleItems(ctx context.Context, collectionID string) ([]*domain.ModuleEntry, int64, error) {
	path := fmt.Sprintf("/api/v1/collections/%s/modules", url.PathEscape(collectionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, 0, err
	}

	var resp moduleListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	entries := make([]*domain.ModuleEntry, 0, len(resp.Items))
	for _, dto := range resp.Items {
		entries = append(entries, toModuleEntry(dto, collectionID))
	}
	return entries, resp.UpdatedAt, nil
}

// GetActiveEnrollment returns the learner's enrollment for a collection, or
// (nil, nil) when no active enrollment exists.
func (c *Client) GetActiveEnrollment(ctx context.Context, learnerID, collectionID string) (*domain.Enrollment, error) {
	path := fmt.Sprintf("/api/v1/learners/%s/enrollments/%s",
		url.PathEscape(learnerID), url.PathEscape(collectionID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var dto enrollmentDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return toEnrollment(dto, learnerID, collectionID), nil
}

// === Progress ===

// GetProgress returns the stored record, or (nil, nil) when none exists
func (c *Client) GetProgress(ctx context.Context, learnerID, itemID string) (*domain.ProgressRecord, error) {
	path := fmt.Sprintf("/api/v1/learners/%s/progress/%s",
		url.PathEscape(learnerID), url.PathEscape(itemID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var dto progressDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return toProgressRecord(dto, itemID), nil
}

// PutProgress stores position and completion for an item
func (c *Client) PutProgress(ctx context.Context, learnerID, itemID string, positionSeconds int, completed bool) error {
	path := fmt.Sprintf("/api/v1/learners/%s/progress/%s",
		url.PathEscape(learnerID), url.PathEscape(itemID))
	payload := progressDTO{
		PositionSeconds: positionSeconds,
		Completed:       completed,
	}
	_, err := c.doRequest(ctx, http.MethodPut, path, nil, payload)
	return err
}

// === Bookmarks ===

// ListBookmarks returns a learner's bookmarks for an item
func (c *Client) ListBookmarks(ctx context.Context, learnerID, itemID string) ([]*domain.Bookmark, error) {
	path := fmt.Sprintf("/api/v1/learners/%s/items/%s/bookmarks",
		url.PathEscape(learnerID), url.PathEscape(itemID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var resp bookmarkListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(resp.Items))
	for _, dto := range resp.Items {
		bookmarks = append(bookmarks, toBookmark(dto, itemID))
	}
	return bookmarks, nil
}

// AddBookmark creates a bookmark. The id is generated client-side so the
// create is idempotent on retry.
func (c *Client) AddBookmark(ctx context.Context, learnerID, itemID string, positionSeconds int, label string) (*domain.Bookmark, error) {
	path := fmt.Sprintf("/api/v1/learners/%s/items/%s/bookmarks",
		url.PathEscape(learnerID), url.PathEscape(itemID))
	payload := bookmarkDTO{
		ID:              uuid.NewString(),
		PositionSeconds: positionSeconds,
		Label:           label,
	}
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}

	var dto bookmarkDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return toBookmark(dto, itemID), nil
}

// DeleteBookmark removes a bookmark by id
func (c *Client) DeleteBookmark(ctx context.Context, learnerID, bookmarkID string) error {
	path := fmt.Sprintf("/api/v1/learners/%s/bookmarks/%s",
		url.PathEscape(learnerID), url.PathEscape(bookmarkID))
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if errors.Is(err, domain.ErrItemNotFound) {
		return domain.ErrBookmarkNotFound
	}
	return err
}
