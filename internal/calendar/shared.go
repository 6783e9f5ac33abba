package calendar

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/wherebot/internal/metrics"
	"github.com/hitoshi/wherebot/internal/model"
)

// fetchState は共有カレンダー取得の状態。
// unfetched → fetching → resolved|failed の一方向にのみ遷移し、
// 確定後はプロセス終了まで変化しない（再取得・無効化はしない）。
type fetchState int

const (
	stateUnfetched fetchState = iota
	stateFetching
	stateResolved
	stateFailed
)

// outcome は確定した取得結果。okがfalseの場合はエラーマーカー
// （共有不在カレンダー利用不可）を意味する。
type outcome struct {
	events []model.CalendarEvent
	ok     bool
}

// SharedCalendar は組織共有の不在カレンダーを1プロセスにつき1回だけ取得する
// 合流フェッチャー。最初の呼び出しだけが実際のフェッチを発行し、
// フェッチ中に到着した呼び出しはウェイターキューに登録され、
// 同一の結果が確定した時点で登録順に再開される。
//
// 可変な共有状態はこの構造体のみで、fetchingからの遷移は1回だけ書き込まれ、
// 以後は読み取り専用になる。
type SharedCalendar struct {
	source     EventSource
	calendarID string
	logger     *slog.Logger
	metrics    metrics.MetricsCollector

	mu      sync.Mutex
	state   fetchState
	events  []model.CalendarEvent
	waiters []chan outcome
}

// NewSharedCalendar はSharedCalendarの新しいインスタンスを生成する。
// プロセスにつき1個だけ構築し、全リゾルバ呼び出しで共有する。
func NewSharedCalendar(source EventSource, calendarID string, logger *slog.Logger, collector metrics.MetricsCollector) *SharedCalendar {
	return &SharedCalendar{
		source:     source,
		calendarID: calendarID,
		logger:     logger,
		metrics:    collector,
	}
}

// Events は共有不在カレンダーのイベント一覧を返す。
// okがfalseの場合は取得失敗のエラーマーカーで、呼び出し元は次の
// フォールバックへ静かに進み、最終応答にbest-guessの但し書きを付ける。
//
// 並行呼び出しに対する保証:
//   - unfetchedを観測するのはちょうど1つの呼び出しで、その呼び出しがフェッチを発行する
//   - フェッチ中に到着した呼び出しはアダプタへ転送されず、確定を待つ
//   - 確定はすべてのウェイターへの結果配信にhappens-before関係を持つ
//   - 確定後の呼び出しはキャッシュ済みの結果を同期的に返す
func (s *SharedCalendar) Events(ctx context.Context) ([]model.CalendarEvent, bool) {
	s.mu.Lock()
	switch s.state {
	case stateResolved:
		events := s.events
		s.mu.Unlock()
		return events, true

	case stateFailed:
		s.mu.Unlock()
		return nil, false

	case stateFetching:
		ch := make(chan outcome, 1)
		s.waiters = append(s.waiters, ch)
		s.mu.Unlock()
		out := <-ch
		return out.events, out.ok

	default:
		// unfetched: この呼び出しがフェッチャーになる（check-and-set）。
		s.state = stateFetching
		s.mu.Unlock()
	}

	// 呼び出し元リクエストのキャンセルがプロセス寿命のキャッシュを
	// 汚染しないよう切り離す。デッドラインはHTTPクライアント側で制御される。
	s.metrics.RecordSharedCalendarFetch()
	events, err := s.source.Events(context.WithoutCancel(ctx), s.calendarID)

	var out outcome
	s.mu.Lock()
	if err != nil {
		s.logger.Error("共有不在カレンダーの取得に失敗しました",
			slog.String("calendar_id", s.calendarID),
			slog.String("error", err.Error()),
		)
		s.state = stateFailed
		out = outcome{ok: false}
	} else {
		s.state = stateResolved
		s.events = events
		out = outcome{events: events, ok: true}
	}
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	// 登録順に再開する。チャネルはバッファ付きなので送信はブロックしない。
	for _, ch := range waiters {
		ch <- out
	}

	return out.events, out.ok
}
