// Package calendar はカレンダーイベントの取得と、組織共有の不在カレンダーの
// プロセス内キャッシュ（リクエスト合流）を提供する。
package calendar

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/wherebot/internal/fetchutil"
	"github.com/hitoshi/wherebot/internal/model"
)

const (
	// defaultEndpoint はGoogle Calendar API v3のベースURL。
	defaultEndpoint = "https://www.googleapis.com/calendar/v3"
	// lookbackDays はイベント取得の遡及日数。進行中の長期不在イベントを拾うため。
	lookbackDays = 14
	// maxResults は1回の取得で返す最大イベント数。
	maxResults = 50
)

// EventSource はカレンダーIDからイベント一覧を取得するインターフェース。
type EventSource interface {
	Events(ctx context.Context, calendarID string) ([]model.CalendarEvent, error)
}

// Client はGoogle Calendar APIのイベント取得アダプタ。
// 個人カレンダーの取得（キャッシュなし、リクエストごとにフレッシュ）と、
// SharedCalendar経由の共有カレンダー取得の両方で使用される。
type Client struct {
	fetcher  *fetchutil.Client
	logger   *slog.Logger
	apiKey   string
	endpoint string // テスト用・設定でのエンドポイント差し替え可能
	now      func() time.Time
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合は本番APIエンドポイントを使用する。
func NewClient(fetcher *fetchutil.Client, logger *slog.Logger, apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		fetcher:  fetcher,
		logger:   logger,
		apiKey:   apiKey,
		endpoint: endpoint,
		now:      time.Now,
	}
}

// eventsResponse はイベント一覧APIのレスポンスボディ。
type eventsResponse struct {
	Items []eventItem `json:"items"`
}

type eventItem struct {
	Summary string    `json:"summary"`
	Start   eventTime `json:"start"`
	End     eventTime `json:"end"`
}

// eventTime は終日イベント（Date）と時刻付きイベント（DateTime）の
// どちらか一方のフィールドを持つ。
type eventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
}

// Events は指定カレンダーのイベント一覧を取得する。
// 取得範囲は本日の14日前以降、最大50件。
// APIキーが未設定の場合はMisconfiguredエラーを返す（該当フォールバックはスキップされる）。
func (c *Client) Events(ctx context.Context, calendarID string) ([]model.CalendarEvent, error) {
	if c.apiKey == "" {
		return nil, model.NewMisconfigured("calendar", "CALENDAR_API_KEY is not set")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("timeMin", c.now().AddDate(0, 0, -lookbackDays).UTC().Format(time.RFC3339))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("singleEvents", "true")
	reqURL := c.endpoint + "/calendars/" + url.PathEscape(calendarID) + "/events?" + q.Encode()

	var resp eventsResponse
	if err := c.fetcher.GetJSON(ctx, "calendar", reqURL, &resp); err != nil {
		return nil, err
	}

	events := make([]model.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev := model.CalendarEvent{Summary: item.Summary}

		// 終日イベントは日付のみ（start.date / end.date）で表現される。
		// end.dateは排他的（Google Calendarの仕様どおり）。
		if item.Start.Date != "" && item.End.Date != "" {
			start, err1 := time.ParseInLocation("2006-01-02", item.Start.Date, time.UTC)
			end, err2 := time.ParseInLocation("2006-01-02", item.End.Date, time.UTC)
			if err1 != nil || err2 != nil {
				c.logger.Warn("終日イベントの日付を解釈できないため読み飛ばします",
					slog.String("calendar_id", calendarID),
					slog.String("start", item.Start.Date),
					slog.String("end", item.End.Date),
				)
				continue
			}
			ev.AllDay = true
			ev.Start = start
			ev.End = end
		}

		events = append(events, ev)
	}

	return events, nil
}
