package model

import "time"

// CalendarEvent はカレンダーから取得した1件のイベントを表す。
// 不在検出に使用するのは終日イベントのみで、時刻付きイベントは無視される。
type CalendarEvent struct {
	// Summary はイベントのサマリーテキスト。不在検出のパターン照合対象。
	Summary string
	// AllDay は日付のみの終日イベントであることを示す。
	AllDay bool
	// Start は終日イベントの開始日（UTC深夜0時に正規化した日付）。
	Start time.Time
	// End は終日イベントの終了日（排他的）。終了日当日はもう有効期間に含まれない。
	End time.Time
}
