// Package geo はジオコーディングと座標からのタイムゾーン解決を提供する。
package geo

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/model"
)

// defaultGeocoderEndpoint はPelias互換ジオコーディングAPIのベースURL。
const defaultGeocoderEndpoint = "https://api.geocode.earth/v1"

// GeocoderSource は自由テキストから候補地を検索するインターフェース。
type GeocoderSource interface {
	// Search は自由テキストに対する候補地をランク順で返す。
	// 候補ゼロ件は正常応答（空スライス）でありエラーではない。
	Search(ctx context.Context, text string) ([]model.LocationCandidate, error)
}

// Geocoder はPelias互換の前方ジオコーディングアダプタ。
type Geocoder struct {
	fetcher  *fetchutil.Client
	logger   *slog.Logger
	apiKey   string
	endpoint string // テスト用・設定でのエンドポイント差し替え可能
}

// NewGeocoder はGeocoderの新しいインスタンスを生成する。
// endpointが空の場合は本番APIエンドポイントを使用する。
func NewGeocoder(fetcher *fetchutil.Client, logger *slog.Logger, apiKey, endpoint string) *Geocoder {
	if endpoint == "" {
		endpoint = defaultGeocoderEndpoint
	}
	return &Geocoder{
		fetcher:  fetcher,
		logger:   logger,
		apiKey:   apiKey,
		endpoint: endpoint,
	}
}

// searchResponse は検索APIのGeoJSONレスポンス。
type searchResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Label string `json:"label"`
	} `json:"properties"`
	Geometry struct {
		// GeoJSONの座標順は [lon, lat]。
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Search は自由テキストに対する候補地をランク順で返す。
func (g *Geocoder) Search(ctx context.Context, text string) ([]model.LocationCandidate, error) {
	q := url.Values{}
	if g.apiKey != "" {
		q.Set("api_key", g.apiKey)
	}
	q.Set("text", text)
	reqURL := g.endpoint + "/search?" + q.Encode()

	var resp searchResponse
	if err := g.fetcher.GetJSON(ctx, "geocoder", reqURL, &resp); err != nil {
		return nil, err
	}

	candidates := make([]model.LocationCandidate, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Geometry.Coordinates) < 2 {
			g.logger.Warn("座標を持たないジオコード候補を読み飛ばします",
				slog.String("label", f.Properties.Label),
			)
			continue
		}
		candidates = append(candidates, model.LocationCandidate{
			Label: f.Properties.Label,
			Lat:   f.Geometry.Coordinates[1],
			Lon:   f.Geometry.Coordinates[0],
		})
	}

	return candidates, nil
}
