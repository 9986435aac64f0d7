package hymn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/psalterhq/psalter/internal/cache"
)

func newTestServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		switch r.URL.Path {
		case "/hymn-23":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(samplePayload))
		case "/broken":
			w.Write([]byte("not json at all"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientFetch(t *testing.T) {
	server := newTestServer(t, nil)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	h, err := client.Fetch(context.Background(), "hymn-23")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if h.Title != "Abide With Me" {
		t.Errorf("Title = %q", h.Title)
	}
}

func TestClientFetchNotFound(t *testing.T) {
	server := newTestServer(t, nil)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Fetch(context.Background(), "no-such-hymn")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClientFetchBadPayload(t *testing.T) {
	server := newTestServer(t, nil)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Fetch(context.Background(), "broken"); err == nil {
		t.Errorf("undecodable payload should surface an error")
	}
}

func TestClientFetchCacheFirst(t *testing.T) {
	hits := 0
	server := newTestServer(t, &hits)

	store, err := cache.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt: %v", err)
	}
	defer store.Close()

	client, err := NewClient(server.URL, WithCache(store))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), "hymn-23"); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}

	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (cache-first)", hits)
	}
}

func TestClientWithoutCacheBypassesStore(t *testing.T) {
	hits := 0
	server := newTestServer(t, &hits)

	store, err := cache.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	client, err := NewClient(server.URL, WithCache(store), WithoutCache())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.Fetch(context.Background(), "hymn-23"); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}

	if hits != 2 {
		t.Errorf("server hit %d times, want 2 with caching disabled", hits)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Errorf("empty base url accepted")
	}
}
