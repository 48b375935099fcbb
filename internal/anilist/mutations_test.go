package anilist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anisync/internal/shared"
)

func TestSaveEntry(t *testing.T) {
	t.Run("Create Omits Entry ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query, vars := decodeGQL(t, r)

			if _, present := vars["id"]; present {
				t.Errorf("create must not send an entry id, got %v", vars["id"])
			}
			if vars["mediaId"] != float64(30) {
				t.Errorf("expected mediaId 30, got %v", vars["mediaId"])
			}
			if vars["status"] != "PLANNING" {
				t.Errorf("expected status PLANNING, got %v", vars["status"])
			}

			lists, ok := vars["customLists"].([]any)
			if !ok || len(lists) != 0 {
				t.Errorf("expected empty customLists list (not null), got %v", vars["customLists"])
			}

			if !strings.Contains(query, "scoreRaw: $score") {
				t.Errorf("save must write raw scores, got query %s", query)
			}

			w.Write([]byte(`{"data": {"SaveMediaListEntry": {"id": 555}}}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		id, err := c.SaveEntry(context.Background(), ListEntry{MediaID: 30, Status: StatusPlanning}, "tok")

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != 555 {
			t.Errorf("expected assigned id 555, got %d", id)
		}
	})

	t.Run("Update Sends Entry ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, vars := decodeGQL(t, r)
			if vars["id"] != float64(99) {
				t.Errorf("expected entry id 99, got %v", vars["id"])
			}
			if vars["score"] != float64(70) {
				t.Errorf("expected score 70, got %v", vars["score"])
			}
			w.Write([]byte(`{"data": {"SaveMediaListEntry": {"id": 99}}}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		entry := ListEntry{ID: 99, MediaID: 30, Status: StatusCurrent, Score: intPtr(70)}
		if _, err := c.SaveEntry(context.Background(), entry, "tok"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Requires Token", func(t *testing.T) {
		c := newTestClient("http://example.com")
		_, err := c.SaveEntry(context.Background(), ListEntry{MediaID: 1}, "")

		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Unconfirmed Save", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"SaveMediaListEntry": null}}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if _, err := c.SaveEntry(context.Background(), ListEntry{MediaID: 1}, "tok"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestDeleteEntry(t *testing.T) {
	t.Run("Confirmed Deletion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, vars := decodeGQL(t, r)
			if vars["id"] != float64(42) {
				t.Errorf("expected id 42, got %v", vars["id"])
			}
			w.Write([]byte(`{"data": {"DeleteMediaListEntry": {"deleted": true}}}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if err := c.DeleteEntry(context.Background(), 42, "tok"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Unconfirmed Deletion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"DeleteMediaListEntry": {"deleted": false}}}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		err := c.DeleteEntry(context.Background(), 42, "tok")

		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Requires Token", func(t *testing.T) {
		c := newTestClient("http://example.com")
		if err := c.DeleteEntry(context.Background(), 42, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
