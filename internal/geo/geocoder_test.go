package geo

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

func newTestGeocoder(t *testing.T, server *httptest.Server) *Geocoder {
	t.Helper()
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	fetcher := fetchutil.NewClient(server.Client(), logger, 0)
	return NewGeocoder(fetcher, logger, "test-key", server.URL)
}

func TestGeocoder_Search_ParsesFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("パス = %s, want /search", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %s, want test-key", q.Get("api_key"))
		}
		if q.Get("text") != "timbuktu" {
			t.Errorf("text = %s, want timbuktu", q.Get("text"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"features": [
				{
					"properties": {"label": "Timbuktu, Mali"},
					"geometry": {"coordinates": [-3.0026, 16.7735]}
				},
				{
					"properties": {"label": "Timbuktu, CA, USA"},
					"geometry": {"coordinates": [-120.92, 38.51]}
				}
			]
		}`))
	}))
	defer server.Close()

	g := newTestGeocoder(t, server)

	candidates, err := g.Search(context.Background(), "timbuktu")
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("候補数 = %d, want 2", len(candidates))
	}

	// 最上位候補がランク順の先頭に来ること、GeoJSONの[lon, lat]が入れ替わって格納されること
	top := candidates[0]
	if top.Label != "Timbuktu, Mali" {
		t.Errorf("Label = %s, want Timbuktu, Mali", top.Label)
	}
	if top.Lat != 16.7735 {
		t.Errorf("Lat = %f, want 16.7735", top.Lat)
	}
	if top.Lon != -3.0026 {
		t.Errorf("Lon = %f, want -3.0026", top.Lon)
	}
}

func TestGeocoder_Search_EmptyResultIsNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": []}`))
	}))
	defer server.Close()

	g := newTestGeocoder(t, server)

	candidates, err := g.Search(context.Background(), "the conference in another galaxy")
	if err != nil {
		t.Fatalf("候補ゼロ件はエラーではない: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("候補数 = %d, want 0", len(candidates))
	}
}

func TestGeocoder_Search_SkipsFeaturesWithoutCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"features": [
				{
					"properties": {"label": "broken"},
					"geometry": {"coordinates": []}
				},
				{
					"properties": {"label": "Berlin, Germany"},
					"geometry": {"coordinates": [13.40, 52.52]}
				}
			]
		}`))
	}))
	defer server.Close()

	g := newTestGeocoder(t, server)

	candidates, err := g.Search(context.Background(), "berlin")
	if err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("座標のない候補は読み飛ばされるべき: got %d", len(candidates))
	}
	if candidates[0].Label != "Berlin, Germany" {
		t.Errorf("Label = %s, want Berlin, Germany", candidates[0].Label)
	}
}

func TestGeocoder_Search_NoAPIKeyOmitsParameter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["api_key"]; present {
			t.Error("APIキー未設定時はapi_keyパラメータを付与するべきではない")
		}
		w.Write([]byte(`{"features": []}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	fetcher := fetchutil.NewClient(server.Client(), logger, 0)
	g := NewGeocoder(fetcher, logger, "", server.URL)

	if _, err := g.Search(context.Background(), "oslo"); err != nil {
		t.Fatalf("Search がエラーを返した: %v", err)
	}
}

func TestGeocoder_Search_HTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := newTestGeocoder(t, server)

	if _, err := g.Search(context.Background(), "oslo"); err == nil {
		t.Fatal("HTTPエラー時にエラーが返されるべき")
	}
}
