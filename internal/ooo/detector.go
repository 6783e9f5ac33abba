// Package ooo はカレンダーイベントから「不在（out of town）」の記述を検出する。
// 固定パターンによる狭いパース単位であり、一般的な自然言語理解は行わない。
package ooo

import (
	"regexp"
	"strings"
	"time"

	"github.com/hitoshi/wherebot/internal/model"
)

// Detect はeventsを走査し、todayの時点で有効な終日イベントのサマリーから
// personNameの不在先を示す自由テキストを抽出する。
//
// 有効期間は半開区間 start <= today < end で判定する。終了日当日の
// イベントはもう有効ではない（帰着日には在宅扱い）。
//
// パターンは優先順に「<name> ... in (X)」「<name> out (X)」の2つで、
// 大文字小文字を区別しない。最初に一致したイベント・パターンの組が
// 採用される（first-match。ベストマッチ探索や日付による優先付けはしない）。
// イベントの走査順はソースが返した元の順序のまま。
func Detect(events []model.CalendarEvent, personName string, today time.Time) (string, bool) {
	patterns := compilePatterns(personName)
	day := dateOf(today)

	for _, ev := range events {
		if !ev.AllDay {
			continue
		}
		if day.Before(ev.Start) || !day.Before(ev.End) {
			continue
		}
		summary := strings.ToLower(ev.Summary)
		for _, p := range patterns {
			if m := p.FindStringSubmatch(summary); m != nil {
				return m[1], true
			}
		}
	}

	return "", false
}

// compilePatterns は人物名を埋め込んだ検出パターンを優先順で返す。
// 捕捉グループ1がマッチ末尾までの不在先自由テキストになる。
// 照合対象のサマリーは小文字化済みのため、パターンも小文字で構築する。
func compilePatterns(personName string) []*regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(personName))
	return []*regexp.Regexp{
		regexp.MustCompile(quoted + `.*in (.*)`),
		regexp.MustCompile(quoted + ` out (.*)`),
	}
}

// dateOf は時刻を日付（UTC深夜0時）に正規化する。
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
