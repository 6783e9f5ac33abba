// Package fetchutil は外部APIへの汎用JSONフェッチを提供する。
// 各アダプタ（カレンダー・ジオコーダ・トラッキング・ジョーク）が共有する。
package fetchutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/wherebot/internal/model"
)

// Client は外部APIへのJSON GETリクエストを実行する。
// タイムアウトはhttpClient側のデッドラインで制御され、期限切れは
// TransportFailureとして分類される（致命的エラーにはならない）。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// maxBodySizeが0以下の場合はデフォルト値1MiBを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, maxBodySize int64) *Client {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// GetJSON はrawURLにGETリクエストを送り、レスポンスJSONをvにデコードする。
// sourceは失敗分類とログに使用する外部ソース名。
// 接続・応答の失敗と非2xxステータスはTransportFailure、
// JSONデコード失敗はParseFailureとして返す。
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.NewTransportFailure(source, err)
	}
	req.Header.Set("User-Agent", "Wherebot/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("外部APIへのリクエストに失敗しました",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return model.NewTransportFailure(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("外部APIがエラーステータスを返しました",
			slog.String("source", source),
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewTransportFailure(source, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return model.NewTransportFailure(source, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		c.logger.Error("レスポンスJSONのパースに失敗しました",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return model.NewParseFailure(source, err)
	}

	return nil
}
