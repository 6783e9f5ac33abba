// Package joke はジョークAPI（icndb互換）のアダプタを提供する。
package joke

import (
	"context"
	"errors"
	"html"
	"log/slog"

	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/model"
)

// defaultEndpoint はジョークAPIのベースURL。
const defaultEndpoint = "http://api.icndb.com"

// Source はランダムなジョークを1件取得するインターフェース。
type Source interface {
	Random(ctx context.Context) (string, error)
}

// Client はジョークAPIのHTTP JSONアダプタ。
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

// jokeResponse はランダムジョークAPIのレスポンス。
type jokeResponse struct {
	Value struct {
		Joke string `json:"joke"`
	} `json:"value"`
}

// Random はランダムなジョークを1件取得する。
// APIはHTMLエンティティでエスケープしたテキストを返すためデコードして返す。
// 応答への埋め込み前の文字サニタイズは呼び出し元の責務。
func (c *Client) Random(ctx context.Context) (string, error) {
	var resp jokeResponse
	if err := c.fetcher.GetJSON(ctx, "joke", c.endpoint+"/jokes/random", &resp); err != nil {
		return "", err
	}

	if resp.Value.Joke == "" {
		return "", model.NewParseFailure("joke", errors.New("response contains no joke text"))
	}

	return html.UnescapeString(resp.Value.Joke), nil
}
