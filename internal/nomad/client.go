// Package nomad はノマドトラッキングサービス（nomadlist）の現在地アダプタを提供する。
package nomad

import (
	"context"
	"log/slog"

	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/model"
)

// defaultEndpoint はトラッキングサービスのベースURL。
const defaultEndpoint = "https://nomadlist.com"

// Location はトラッキングサービスが返す現在地。
type Location struct {
	City    string
	Country string
	Lat     float64
	Lon     float64
}

// Source はアカウントIDから現在地を取得するインターフェース。
type Source interface {
	CurrentLocation(ctx context.Context, account string) (*Location, error)
}

// Client はトラッキングサービスのHTTP JSONアダプタ。
type Client struct {
	fetcher  *fetchutil.Client
	logger   *slog.Logger
	endpoint string // テスト用・設定でのエンドポイント差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合は本番エンドポイントを使用する。
func NewClient(fetcher *fetchutil.Client, logger *slog.Logger, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		fetcher:  fetcher,
		logger:   logger,
		endpoint: endpoint,
	}
}

// profileResponse はアカウントプロフィールAPIのレスポンス。
type profileResponse struct {
	Location struct {
		Now struct {
			City      string  `json:"city"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"now"`
	} `json:"location"`
}

// CurrentLocation はアカウントの現在地を取得する。
// accountは"@name"形式のアカウント名。現在地情報を含まないレスポンスは
// NotFoundとして扱う（呼び出し元はホームフォールバックへ進む）。
func (c *Client) CurrentLocation(ctx context.Context, account string) (*Location, error) {
	reqURL := c.endpoint + "/" + account + ".json"

	var resp profileResponse
	if err := c.fetcher.GetJSON(ctx, "nomad", reqURL, &resp); err != nil {
		return nil, err
	}

	now := resp.Location.Now
	if now.City == "" && now.Country == "" {
		return nil, model.NewNotFound("nomad", "response contains no current location")
	}

	return &Location{
		City:    now.City,
		Country: now.Country,
		Lat:     now.Latitude,
		Lon:     now.Longitude,
	}, nil
}
