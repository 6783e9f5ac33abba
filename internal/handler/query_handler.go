// Package handler はチャット連携のHTTPエンドポイントを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/wherebot/internal/metrics"
)

// QueryResponder は受信テキストから応答本文を生成するインターフェース。
type QueryResponder interface {
	Reply(ctx context.Context, text, sender string) string
}

// QueryHandler はチャット連携のコマンドエンドポイントを処理する。
type QueryHandler struct {
	responder QueryResponder
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewQueryHandler はQueryHandlerの新しいインスタンスを生成する。
func NewQueryHandler(responder QueryResponder, collector metrics.MetricsCollector, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		responder: responder,
		metrics:   collector,
		logger:    logger,
	}
}

// commandResponse はチャット連携へ返すJSONレスポンス。
type commandResponse struct {
	Text string `json:"text"`
}

// HandleCommand はチャット連携のスラッシュコマンドを処理する。
// フォームのtextが質問本文、user_nameが送信者。
// チャット連携は非200をエラー表示してしまうため、常に200でJSONを返す。
func (h *QueryHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("フォームの解析に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	text := r.Form.Get("text")
	sender := r.Form.Get("user_name")

	reply := h.responder.Reply(r.Context(), text, sender)
	h.metrics.RecordQueryLatency(time.Since(start))

	writeChatResponse(w, reply)
}

// writeChatResponse はチャット応答のJSONを200で書き込む。
func writeChatResponse(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(commandResponse{Text: text}); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
