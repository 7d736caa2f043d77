package trakt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetAllWatchlist_PaginatesAcrossPages(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/users/me/watchlist" {
			t.Errorf("expected path /users/me/watchlist, got %s", r.URL.Path)
		}
		if r.Header.Get("trakt-api-key") != "test-client-id" {
			t.Errorf("expected trakt-api-key header")
		}
		w.Header().Set("X-Pagination-Item-Count", "2")
		w.WriteHeader(http.StatusOK)
		if r.URL.Query().Get("page") == "1" {
			json.NewEncoder(w).Encode([]WatchlistItem{{Type: "movie", Movie: &Movie{Title: "A", IDs: IDs{TMDB: 1}}}})
		} else {
			json.NewEncoder(w).Encode([]WatchlistItem{{Type: "show", Show: &Show{Title: "B", IDs: IDs{TMDB: 2}}}})
		}
	}))
	defer server.Close()

	defer setBaseURL(traktAPIBaseURL)
	setBaseURL(server.URL)

	client := NewClient("test-client-id", "test-secret")
	items, err := client.GetAllWatchlist("test-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items across both pages, got %d", len(items))
	}
	if calls != 2 {
		t.Errorf("expected 2 paginated requests, got %d", calls)
	}
}

func TestGetAllFavorites_CoversMoviesAndShows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pagination-Item-Count", "1")
		w.WriteHeader(http.StatusOK)
		if r.URL.Path == "/users/me/favorites/movies" {
			json.NewEncoder(w).Encode([]FavoriteItem{{Type: "movie", Movie: &Movie{IDs: IDs{TMDB: 10}}}})
		} else {
			json.NewEncoder(w).Encode([]FavoriteItem{{Type: "show", Show: &Show{IDs: IDs{TMDB: 20}}}})
		}
	}))
	defer server.Close()

	defer setBaseURL(traktAPIBaseURL)
	setBaseURL(server.URL)

	client := NewClient("id", "secret")
	items, err := client.GetAllFavorites("token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 1 movie + 1 show favorite, got %d", len(items))
	}
}

func TestGetUserLists_ReturnsListsWithIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/lists" {
			t.Errorf("expected path /users/me/lists, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		lists := []UserList{{Name: "favorite shows"}}
		lists[0].IDs.Slug = "favorite-shows"
		json.NewEncoder(w).Encode(lists)
	}))
	defer server.Close()

	defer setBaseURL(traktAPIBaseURL)
	setBaseURL(server.URL)

	client := NewClient("id", "secret")
	lists, err := client.GetUserLists("token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 1 || lists[0].IDs.Slug != "favorite-shows" {
		t.Fatalf("unexpected lists: %+v", lists)
	}
}

func TestGetAllListItems_PaginatesAcrossPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/lists/favorite-shows/items" {
			t.Errorf("expected list items path, got %s", r.URL.Path)
		}
		w.Header().Set("X-Pagination-Item-Count", "1")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]ListItem{{Type: "show", Show: &Show{IDs: IDs{TMDB: 5}}}})
	}))
	defer server.Close()

	defer setBaseURL(traktAPIBaseURL)
	setBaseURL(server.URL)

	client := NewClient("id", "secret")
	items, err := client.GetAllListItems("token", "favorite-shows")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Show.IDs.TMDB != 5 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestGetWatchlist_PropagatesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("unauthorized"))
	}))
	defer server.Close()

	defer setBaseURL(traktAPIBaseURL)
	setBaseURL(server.URL)

	client := NewClient("id", "secret")
	_, _, err := client.GetWatchlist("bad-token", 1, 100)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}
