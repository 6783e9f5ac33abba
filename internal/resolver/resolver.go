// Package resolver は人物ごとの所在地解決フォールバックチェーンを実装する。
//
// 情報源の優先順位:
//  1. ノマドトラッキングサービス（アカウント設定時。確定的な情報源で、
//     失敗時はカレンダーを経由せずホームフォールバックへ進む）
//  2. 組織共有の不在カレンダー（合流キャッシュ経由）
//  3. 個人カレンダー（キャッシュなし、リクエストごとにフレッシュ取得）
//  4. 設定されたホームロケーション
//
// Resolveは決して失敗しない。どのステップで何が失敗しても、必ず
// 人間可読なテキスト応答に収束する。
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/wherebot/internal/calendar"
	"github.com/hitoshi/wherebot/internal/geo"
	"github.com/hitoshi/wherebot/internal/metrics"
	"github.com/hitoshi/wherebot/internal/model"
	"github.com/hitoshi/wherebot/internal/nomad"
	"github.com/hitoshi/wherebot/internal/ooo"
)

// SharedEvents は共有不在カレンダーの取得インターフェース。
// okがfalseの場合は「カレンダー利用不可」のエラーマーカー。
type SharedEvents interface {
	Events(ctx context.Context) ([]model.CalendarEvent, bool)
}

// Sanitizer は応答へ埋め込むサードパーティ由来テキストの無害化インターフェース。
type Sanitizer interface {
	SanitizeChars(s string) string
}

// Resolution は1人分の所在地解決の最終結果。Textは常に非空。
type Resolution struct {
	// Text は応答に含める1行のテキスト。
	Text string
	// Source は採用された情報源: nomad, shared_calendar, personal_calendar, home, unknown
	Source string
	// SharedCalendarFailed は共有不在カレンダーの取得失敗を経由したことを示す。
	// 返信全体の「best guess」前置きの判定に使われる。
	SharedCalendarFailed bool
}

// Deps はResolverの依存関係をまとめた構造体。
type Deps struct {
	// Shared は共有不在カレンダー。未設定（nil）の場合はステップ2をスキップする。
	Shared    SharedEvents
	Calendars calendar.EventSource
	Nomad     nomad.Source
	Geocoder  geo.GeocoderSource
	Zones     geo.ZoneClockService
	Sanitizer Sanitizer
	Metrics   metrics.MetricsCollector
	Logger    *slog.Logger
}

// Resolver は人物ごとのフォールバックチェーンを実行する。
type Resolver struct {
	deps Deps
	now  func() time.Time
}

// New はResolverの新しいインスタンスを生成する。
func New(deps Deps) *Resolver {
	return &Resolver{
		deps: deps,
		now:  time.Now,
	}
}

// Resolve は1人分の所在地を解決する。必ずテキスト応答を生成し、失敗しない。
func (r *Resolver) Resolve(ctx context.Context, person *model.Person) Resolution {
	if person.NomadAccount != "" {
		return r.fromNomad(ctx, person)
	}
	return r.fromSharedCalendar(ctx, person)
}

// fromNomad はトラッキングサービスから現在地を解決する。
// トラッキングアカウントは確定的な情報源のため、失敗時はカレンダー系の
// ステップを経由せず直接ホームフォールバックへ進む。
func (r *Resolver) fromNomad(ctx context.Context, person *model.Person) Resolution {
	loc, err := r.deps.Nomad.CurrentLocation(ctx, person.NomadAccount)
	if err != nil {
		r.deps.Logger.Error("トラッキングサービスの参照に失敗しました",
			slog.String("person", person.Name),
			slog.String("account", person.NomadAccount),
			slog.String("error", err.Error()),
		)
		r.deps.Metrics.RecordSourceFailure("nomad")
		qualifier := fmt.Sprintf("I couldn't reach %s's location tracker, but I'm guessing ", person.Name)
		return r.fromHome(person, qualifier, false)
	}

	label := fmt.Sprintf("%s, %s",
		r.deps.Sanitizer.SanitizeChars(loc.City),
		r.deps.Sanitizer.SanitizeChars(loc.Country),
	)
	text := r.locationText(person.Name, label, loc.Lat, loc.Lon)
	text += fmt.Sprintf(" (https://nomadlist.com/%s)", person.NomadAccount)

	r.deps.Metrics.RecordResolution("nomad")
	return Resolution{Text: text, Source: "nomad"}
}

// fromSharedCalendar は組織共有の不在カレンダーから解決を試みる。
// カレンダーが未設定の場合と不在記述が見つからない場合は個人カレンダーへ進む。
// 取得失敗時はエラーマーカーを受け取り、best-guessフラグ付きで次へ進む。
func (r *Resolver) fromSharedCalendar(ctx context.Context, person *model.Person) Resolution {
	if r.deps.Shared == nil {
		return r.fromPersonalCalendar(ctx, person, false)
	}

	events, ok := r.deps.Shared.Events(ctx)
	if !ok {
		return r.fromPersonalCalendar(ctx, person, true)
	}

	if place, found := ooo.Detect(events, person.Name, r.now()); found {
		res := r.geocodeAnswer(ctx, person, place)
		res.Source = "shared_calendar"
		r.deps.Metrics.RecordResolution("shared_calendar")
		return res
	}

	return r.fromPersonalCalendar(ctx, person, false)
}

// fromPersonalCalendar は個人カレンダーから解決を試みる。
// カレンダーはキャッシュせず、リクエストごとにフレッシュに取得する。
func (r *Resolver) fromPersonalCalendar(ctx context.Context, person *model.Person, sharedFailed bool) Resolution {
	if person.CalendarID == "" {
		r.deps.Logger.Info("個人カレンダーが未設定です",
			slog.String("person", person.Name),
		)
		qualifier := fmt.Sprintf("I can't view %s's calendar, but I'm guessing ", person.Name)
		return r.fromHome(person, qualifier, sharedFailed)
	}

	events, err := r.deps.Calendars.Events(ctx, person.CalendarID)
	if err != nil {
		r.deps.Logger.Error("個人カレンダーの取得に失敗しました",
			slog.String("person", person.Name),
			slog.String("error", err.Error()),
		)
		r.deps.Metrics.RecordSourceFailure("calendar")
		qualifier := fmt.Sprintf("I couldn't load %s's calendar, but I'm guessing ", person.Name)
		return r.fromHome(person, qualifier, sharedFailed)
	}

	if place, found := ooo.Detect(events, person.Name, r.now()); found {
		res := r.geocodeAnswer(ctx, person, place)
		res.Source = "personal_calendar"
		res.SharedCalendarFailed = sharedFailed
		r.deps.Metrics.RecordResolution("personal_calendar")
		return res
	}

	return r.fromHome(person, "", sharedFailed)
}

// geocodeAnswer は検出された不在先テキストをジオコードして応答を組み立てる。
// 候補ゼロ件と取得失敗は同じ扱いで、カレンダー記載のテキストをそのまま
// 引用した応答に落とす。ここで解決全体を失敗させることはない。
func (r *Resolver) geocodeAnswer(ctx context.Context, person *model.Person, place string) Resolution {
	candidates, err := r.deps.Geocoder.Search(ctx, place)
	if err != nil {
		r.deps.Logger.Error("ジオコーディングに失敗しました",
			slog.String("person", person.Name),
			slog.String("place", place),
			slog.String("error", err.Error()),
		)
		r.deps.Metrics.RecordSourceFailure("geocoder")
		candidates = nil
	}

	if len(candidates) == 0 {
		text := fmt.Sprintf("%s's calendar says they are in %s, but I have no idea where that is.  :confused:",
			person.Name, r.deps.Sanitizer.SanitizeChars(place))
		return Resolution{Text: text}
	}

	top := candidates[0]
	label := r.deps.Sanitizer.SanitizeChars(top.Label)
	return Resolution{Text: r.locationText(person.Name, label, top.Lat, top.Lon)}
}

// fromHome は最終フォールバック。ホームロケーション未設定の場合は
// 明示的な「所在不明」応答を返す。
func (r *Resolver) fromHome(person *model.Person, qualifier string, sharedFailed bool) Resolution {
	if person.Home == nil {
		r.deps.Metrics.RecordResolution("unknown")
		return Resolution{
			Text:                 fmt.Sprintf("I have no idea where %s is. :confused:", person.Name),
			Source:               "unknown",
			SharedCalendarFailed: sharedFailed,
		}
	}

	label := fmt.Sprintf("%s, %s", person.Home.City, person.Home.Country)
	r.deps.Metrics.RecordResolution("home")
	return Resolution{
		Text:                 qualifier + r.locationText(person.Name, label, person.Home.Lat, person.Home.Lon),
		Source:               "home",
		SharedCalendarFailed: sharedFailed,
	}
}

// locationText は所在地の定型文を生成する。現地時刻は24時間表記のHH:MM。
func (r *Resolver) locationText(name, label string, lat, lon float64) string {
	return fmt.Sprintf("%s is in %s.  The current time there is *%s*.",
		name, label, r.deps.Zones.LocalClock(lat, lon))
}
