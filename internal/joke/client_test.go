package joke

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/wherebot/internal/fetchutil"
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

func TestClient_Random(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jokes/random" {
			t.Errorf("パス = %s, want /jokes/random", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type": "success", "value": {"id": 1, "joke": "Chuck Norris counted to infinity. Twice."}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)

	joke, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random がエラーを返した: %v", err)
	}
	if joke != "Chuck Norris counted to infinity. Twice." {
		t.Errorf("joke = %q", joke)
	}
}

func TestClient_Random_DecodesHTMLEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value": {"joke": "Chuck Norris doesn&quot;t need &amp; symbols."}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)

	joke, err := c.Random(context.Background())
	if err != nil {
		t.Fatalf("Random がエラーを返した: %v", err)
	}
	want := `Chuck Norris doesn"t need & symbols.`
	if joke != want {
		t.Errorf("HTMLエンティティはデコードされるべき: got %q, want %q", joke, want)
	}
}

func TestClient_Random_EmptyJokeIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value": {"joke": ""}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)

	if _, err := c.Random(context.Background()); err == nil {
		t.Fatal("ジョーク本文なしのレスポンスはエラーが返されるべき")
	}
}

func TestClient_Random_HTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server)

	if _, err := c.Random(context.Background()); err == nil {
		t.Fatal("HTTPエラー時にエラーが返されるべき")
	}
}
