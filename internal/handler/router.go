package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wherebot/internal/metrics"
	"github.com/hitoshi/wherebot/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger

	// コマンド処理
	Responder QueryResponder

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → RateLimitMiddleware（/commandのみ）
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Recoveryを最上位に適用（全ルートに効く）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	queryHandler := NewQueryHandler(deps.Responder, deps.Metrics, deps.Logger)

	// ヘルスチェック（レート制限の対象外）
	r.Get("/health", handleHealth)

	// Prometheusスクレイプ
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// チャット連携のスラッシュコマンド
	r.With(deps.RateLimiter.Middleware()).Post("/command", queryHandler.HandleCommand)

	return r
}

// handleHealth はヘルスチェックエンドポイントを処理する。
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
