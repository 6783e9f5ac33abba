package nomad

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	fetcher := fetchutil.NewClient(server.Client(), logger, 0)
	return NewClient(fetcher, logger, server.URL)
}

func TestClient_CurrentLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/@trevor.json" {
			t.Errorf("パス = %s, want /@trevor.json", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"location": {
				"now": {
					"city": "Timbuktu",
					"country": "Mali",
					"latitude": 16.7735,
					"longitude": -3.0026
				}
			}
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)

	loc, err := c.CurrentLocation(context.Background(), "@trevor")
	if err != nil {
		t.Fatalf("CurrentLocation がエラーを返した: %v", err)
	}

	if loc.City != "Timbuktu" {
		t.Errorf("City = %s, want Timbuktu", loc.City)
	}
	if loc.Country != "Mali" {
		t.Errorf("Country = %s, want Mali", loc.Country)
	}
	if loc.Lat != 16.7735 {
		t.Errorf("Lat = %f, want 16.7735", loc.Lat)
	}
	if loc.Lon != -3.0026 {
		t.Errorf("Lon = %f, want -3.0026", loc.Lon)
	}
}

func TestClient_CurrentLocation_EmptyLocationIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location": {"now": {}}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)

	_, err := c.CurrentLocation(context.Background(), "@trevor")
	if err == nil {
		t.Fatal("現在地を含まないレスポンスはエラーが返されるべき")
	}

	var srcErr *model.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("SourceError であるべき: got %T", err)
	}
	if srcErr.Code != model.ErrCodeNotFound {
		t.Errorf("Code = %s, want %s", srcErr.Code, model.ErrCodeNotFound)
	}
}

func TestClient_CurrentLocation_HTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server)

	if _, err := c.CurrentLocation(context.Background(), "@ghost"); err == nil {
		t.Fatal("HTTPエラー時にエラーが返されるべき")
	}
}
