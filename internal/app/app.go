// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wherebot/internal/calendar"
	"github.com/hitoshi/wherebot/internal/config"
	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/geo"
	"github.com/hitoshi/wherebot/internal/handler"
	"github.com/hitoshi/wherebot/internal/intent"
	"github.com/hitoshi/wherebot/internal/joke"
	"github.com/hitoshi/wherebot/internal/logger"
	"github.com/hitoshi/wherebot/internal/metrics"
	"github.com/hitoshi/wherebot/internal/middleware"
	"github.com/hitoshi/wherebot/internal/nomad"
	"github.com/hitoshi/wherebot/internal/resolver"
	"github.com/hitoshi/wherebot/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	// ask はチャット応答のみを標準出力へ出すため、ログは標準エラーへ逃がす
	logWriter := w
	if cmd == CommandAsk {
		logWriter = os.Stderr
	}

	cfg, err := Init(logWriter)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("bot_name", cfg.BotName),
	)

	switch cmd {
	case CommandAsk:
		return runAsk(w, cfg, args[1:])
	case CommandServe:
		return runServe(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はチャット連携サーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	responder, err := buildResponder(cfg, collector)
	if err != nil {
		return err
	}

	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimiterConfig(cfg.RateLimitPerMin),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		RateLimiter: rateLimiter,
		Logger:      slog.Default(),

		Responder: responder,

		Metrics:  collector,
		Gatherer: registry,
	}

	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("chat server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down chat server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("chat server stopped gracefully")
	return nil
}

// runAsk は質問を1回だけ処理して応答をwriterに出力する。
// 使い方: ask "<質問テキスト>" [送信者名]
func runAsk(w io.Writer, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: ask <question> [sender]")
	}

	text := args[0]
	sender := ""
	if len(args) > 1 {
		sender = args[1]
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	responder, err := buildResponder(cfg, collector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Fprintln(w, responder.Reply(ctx, text, sender))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// buildResponder は意図ルーターまでの全依存関係をワイヤリングする。
func buildResponder(cfg *config.Config, collector metrics.MetricsCollector) (*intent.Router, error) {
	// 1. 人物ロスターの読み込み
	people, err := config.LoadPeople(cfg.PeopleFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load people roster: %w", err)
	}

	slog.Info("people roster loaded",
		slog.Int("count", len(people)),
		slog.String("path", cfg.PeopleFile),
	)

	// 2. アウトバウンドHTTPクライアントの構築
	// 設定で上書きされたエンドポイントは起動時に静的検証する
	guard := security.NewOutboundGuard()
	for _, endpoint := range []string{
		cfg.CalendarAPIBase,
		cfg.GeocoderAPIBase,
		cfg.NomadAPIBase,
		cfg.JokeAPIBase,
	} {
		if endpoint == "" {
			continue
		}
		if err := guard.ValidateEndpoint(endpoint); err != nil {
			return nil, fmt.Errorf("unsafe API endpoint %q: %w", endpoint, err)
		}
	}

	httpClient := guard.NewSafeClient(cfg.FetchTimeout)
	fetcher := fetchutil.NewClient(httpClient, slog.Default(), cfg.FetchMaxSize)

	// 3. 外部ソースアダプタの構築
	calendarClient := calendar.NewClient(fetcher, slog.Default(), cfg.CalendarAPIKey, cfg.CalendarAPIBase)
	geocoder := geo.NewGeocoder(fetcher, slog.Default(), cfg.GeocoderAPIKey, cfg.GeocoderAPIBase)
	nomadClient := nomad.NewClient(fetcher, slog.Default(), cfg.NomadAPIBase)
	jokeClient := joke.NewClient(fetcher, slog.Default(), cfg.JokeAPIBase)

	zones, err := geo.NewZoneResolver(slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone resolver: %w", err)
	}

	sanitizer := security.NewReplySanitizer()

	// 4. リゾルバの構築
	// 共有不在カレンダーは設定されている場合のみワイヤリングする
	resolverDeps := resolver.Deps{
		Calendars: calendarClient,
		Nomad:     nomadClient,
		Geocoder:  geocoder,
		Zones:     zones,
		Sanitizer: sanitizer,
		Metrics:   collector,
		Logger:    slog.Default(),
	}
	if cfg.OutOfOfficeCalendarID != "" {
		resolverDeps.Shared = calendar.NewSharedCalendar(
			calendarClient, cfg.OutOfOfficeCalendarID, slog.Default(), collector,
		)
	} else {
		slog.Warn("共有不在カレンダーが未設定のため、共有カレンダーのステップをスキップします")
	}

	locResolver := resolver.New(resolverDeps)

	// 5. 意図ルーターの構築
	return intent.NewRouter(intent.Deps{
		People:        people,
		Resolver:      locResolver,
		Jokes:         jokeClient,
		Sanitizer:     sanitizer,
		Metrics:       collector,
		Logger:        slog.Default(),
		BotName:       cfg.BotName,
		MaxConcurrent: cfg.ResolveMaxConcurrent,
	}), nil
}
