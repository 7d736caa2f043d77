// Package trakt is a minimal Trakt.tv API client covering exactly the
// read surface the importer (C6) exercises: a user's custom lists,
// watchlist, and favorites. The full Trakt API also covers device-code
// OAuth, watch history, scrobbling, and collection/watchlist writes —
// none of which any ryotgo operation calls, since trakt only ever
// participates here as an import source (models.ImportTrakt), never as
// a live C8 integration — so this client carries a personal access
// token supplied at construction rather than an OAuth device flow.
package trakt

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

var traktAPIBaseURL = "https://api.trakt.tv"

const traktAPIVersion = "2"

// setBaseURL overrides the API base URL; used by tests to point the
// client at an httptest server instead of the real Trakt API.
func setBaseURL(url string) { traktAPIBaseURL = url }

// Client handles read-only Trakt API requests for the importer.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
}

// UserProfile identifies the list owner embedded in UserList responses.
type UserProfile struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	VIP      bool   `json:"vip"`
	Private  bool   `json:"private"`
	IDs      struct {
		Slug string `json:"slug"`
	} `json:"ids"`
}

// IDs holds external identifiers for a media item.
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
	TVDB  int    `json:"tvdb,omitempty"`
}

// Movie represents a Trakt movie.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// Show represents a Trakt TV show.
type Show struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// WatchlistItem represents an item from the Trakt watchlist.
type WatchlistItem struct {
	Rank     int       `json:"rank"`
	ListedAt time.Time `json:"listed_at"`
	Type     string    `json:"type"` // "movie" or "show"
	Movie    *Movie    `json:"movie,omitempty"`
	Show     *Show     `json:"show,omitempty"`
}

// FavoriteItem represents an item from the Trakt favorites.
type FavoriteItem struct {
	Rank     int       `json:"rank"`
	ListedAt time.Time `json:"listed_at"`
	Type     string    `json:"type"`
	Movie    *Movie    `json:"movie,omitempty"`
	Show     *Show     `json:"show,omitempty"`
}

// UserList represents a custom Trakt list.
type UserList struct {
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Privacy        string    `json:"privacy"`
	DisplayNumbers bool      `json:"display_numbers"`
	AllowComments  bool      `json:"allow_comments"`
	SortBy         string    `json:"sort_by"`
	SortHow        string    `json:"sort_how"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ItemCount      int       `json:"item_count"`
	CommentCount   int       `json:"comment_count"`
	Likes          int       `json:"likes"`
	IDs            struct {
		Trakt int    `json:"trakt"`
		Slug  string `json:"slug"`
	} `json:"ids"`
	User *UserProfile `json:"user,omitempty"`
}

// ListItem represents an item from a Trakt custom list.
type ListItem struct {
	Rank     int       `json:"rank"`
	ID       int64     `json:"id"`
	ListedAt time.Time `json:"listed_at"`
	Notes    string    `json:"notes,omitempty"`
	Type     string    `json:"type"`
	Movie    *Movie    `json:"movie,omitempty"`
	Show     *Show     `json:"show,omitempty"`
}

// NewClient creates a new Trakt API client.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *Client) setTraktHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// GetWatchlist retrieves one page of the user's watchlist.
func (c *Client) GetWatchlist(accessToken string, page, limit int) ([]WatchlistItem, int, error) {
	url := fmt.Sprintf("%s/users/me/watchlist?page=%d&limit=%d", traktAPIBaseURL, page, limit)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("trakt watchlist failed: %s - %s", resp.Status, string(respBody))
	}

	totalCount := 0
	if totalHeader := resp.Header.Get("X-Pagination-Item-Count"); totalHeader != "" {
		totalCount, _ = strconv.Atoi(totalHeader)
	}

	var items []WatchlistItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	return items, totalCount, nil
}

// GetAllWatchlist retrieves the complete watchlist across every page.
func (c *Client) GetAllWatchlist(accessToken string) ([]WatchlistItem, error) {
	var allItems []WatchlistItem
	page := 1
	limit := 100
	for {
		items, totalCount, err := c.GetWatchlist(accessToken, page, limit)
		if err != nil {
			return nil, err
		}
		allItems = append(allItems, items...)
		if len(allItems) >= totalCount || len(items) == 0 {
			break
		}
		page++
	}
	return allItems, nil
}

// GetFavorites retrieves one page of the user's favorites. mediaType is
// "movies" or "shows".
func (c *Client) GetFavorites(accessToken string, mediaType string, page, limit int) ([]FavoriteItem, int, error) {
	url := fmt.Sprintf("%s/users/me/favorites/%s?page=%d&limit=%d", traktAPIBaseURL, mediaType, page, limit)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("trakt favorites failed: %s - %s", resp.Status, string(respBody))
	}

	totalCount := 0
	if totalHeader := resp.Header.Get("X-Pagination-Item-Count"); totalHeader != "" {
		totalCount, _ = strconv.Atoi(totalHeader)
	}

	var items []FavoriteItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	return items, totalCount, nil
}

// GetAllFavorites retrieves every favorite across both media types.
func (c *Client) GetAllFavorites(accessToken string) ([]FavoriteItem, error) {
	var allItems []FavoriteItem

	page := 1
	limit := 100
	for {
		items, totalCount, err := c.GetFavorites(accessToken, "movies", page, limit)
		if err != nil {
			return nil, fmt.Errorf("get movie favorites: %w", err)
		}
		allItems = append(allItems, items...)
		if len(allItems) >= totalCount || len(items) == 0 {
			break
		}
		page++
	}

	page = 1
	movieCount := len(allItems)
	for {
		items, totalCount, err := c.GetFavorites(accessToken, "shows", page, limit)
		if err != nil {
			return nil, fmt.Errorf("get show favorites: %w", err)
		}
		allItems = append(allItems, items...)
		if len(allItems)-movieCount >= totalCount || len(items) == 0 {
			break
		}
		page++
	}
	return allItems, nil
}

// GetUserLists retrieves every custom list for the authenticated user.
func (c *Client) GetUserLists(accessToken string) ([]UserList, error) {
	url := fmt.Sprintf("%s/users/me/lists", traktAPIBaseURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trakt user lists failed: %s - %s", resp.Status, string(respBody))
	}

	var lists []UserList
	if err := json.NewDecoder(resp.Body).Decode(&lists); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return lists, nil
}

// GetListItems retrieves one page of items from a specific user list.
func (c *Client) GetListItems(accessToken string, listID string, page, limit int) ([]ListItem, int, error) {
	url := fmt.Sprintf("%s/users/me/lists/%s/items?page=%d&limit=%d", traktAPIBaseURL, listID, page, limit)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("trakt list items failed: %s - %s", resp.Status, string(respBody))
	}

	totalCount := 0
	if totalHeader := resp.Header.Get("X-Pagination-Item-Count"); totalHeader != "" {
		totalCount, _ = strconv.Atoi(totalHeader)
	}

	var items []ListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	return items, totalCount, nil
}

// GetAllListItems retrieves every item from a specific user list.
func (c *Client) GetAllListItems(accessToken string, listID string) ([]ListItem, error) {
	var allItems []ListItem
	page := 1
	limit := 100
	for {
		items, totalCount, err := c.GetListItems(accessToken, listID, page, limit)
		if err != nil {
			return nil, err
		}
		allItems = append(allItems, items...)
		if len(allItems) >= totalCount || len(items) == 0 {
			break
		}
		page++
	}
	return allItems, nil
}
