// Package intent は受信テキストの意図分類とディスパッチを実装する。
// 分類は固定キーワードと正規表現のみで行い、マルチターンの会話状態は持たない。
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/wherebot/internal/joke"
	"github.com/hitoshi/wherebot/internal/metrics"
	"github.com/hitoshi/wherebot/internal/model"
	"github.com/hitoshi/wherebot/internal/resolver"
)

// ResolverService は人物1人分の所在地解決インターフェース。
type ResolverService interface {
	Resolve(ctx context.Context, person *model.Person) resolver.Resolution
}

// Sanitizer は応答へ埋め込むサードパーティ由来テキストの無害化インターフェース。
type Sanitizer interface {
	SanitizeChars(s string) string
}

// selfPattern は一人称（"where am i" 等）の自己参照を検出する。
// 単語境界で照合し、"going" や "i'm" 以外の部分文字列一致を避ける。
var selfPattern = regexp.MustCompile(`\bi\b`)

// why応答の語彙バンク。3つの枠からランダムに選んで定型文を組み立てる。
var (
	whyAntagonists = []string{
		"I", "the President of the United States of America",
		"Tom Cruise", "a herd of gerbils", "an angry swarm of bees",
		"a unicorn", "an unkown force of nature",
	}
	whyActions = []string{
		"broke", "successfully negotiated a treaty with",
		"destroyed", "wrote a book about", "was the first to discover",
		"overhearing a suspicious conversation about",
	}
	whyThings = []string{
		"it", "the Statue of Liberty", "radioactive sludge",
		"a helicopter full of spaghetti", "the office",
	}
)

// Deps はRouterの依存関係をまとめた構造体。
type Deps struct {
	People        []*model.Person
	Resolver      ResolverService
	Jokes         joke.Source
	Sanitizer     Sanitizer
	Metrics       metrics.MetricsCollector
	Logger        *slog.Logger
	BotName       string
	MaxConcurrent int
}

// Router は受信テキストを意図に分類し、対応する応答を生成する。
// 優先順位は locate > joke > why > yesno > unknown で、最初に一致した分岐が勝つ。
type Router struct {
	deps Deps
	// randFn は乱数選択の差し替えポイント（テスト用）。nが正のとき[0, n)を返す。
	randFn func(n int) int
}

// NewRouter はRouterの新しいインスタンスを生成する。
// MaxConcurrentが0以下の場合はデフォルト値4を使用する。
func NewRouter(deps Deps) *Router {
	if deps.MaxConcurrent <= 0 {
		deps.MaxConcurrent = 4
	}
	return &Router{
		deps:   deps,
		randFn: rand.Intn,
	}
}

// Reply は受信テキストを分類して応答本文を生成する。
// senderはチャット連携のsender identity（自己参照クエリの照合に使用）。
// どのような入力・バックエンド状態でも必ずテキストを返し、失敗しない。
func (rt *Router) Reply(ctx context.Context, text, sender string) string {
	lower := strings.ToLower(text)
	// ボット宛メンションを除去してから照合する
	if rt.deps.BotName != "" {
		lower = strings.ReplaceAll(lower, strings.ToLower(rt.deps.BotName), "")
	}

	switch {
	case strings.Contains(lower, "where"):
		rt.deps.Metrics.RecordQuery("locate")
		return rt.locate(ctx, lower, sender)
	case strings.Contains(lower, "chuck norris"):
		rt.deps.Metrics.RecordQuery("joke")
		return rt.joke(ctx)
	case strings.Contains(lower, "why"):
		rt.deps.Metrics.RecordQuery("why")
		return rt.why()
	case strings.Contains(lower, "do") || strings.Contains(lower, "are"):
		rt.deps.Metrics.RecordQuery("yesno")
		return rt.yesNo()
	default:
		rt.deps.Metrics.RecordQuery("unknown")
		return "I don't understand, I'm afraid :thinking_face:"
	}
}

// locate は所在地クエリを処理する。
// 名指しされた既知の人物 > "everyone" > 一人称の自己参照 > 既知人物の一覧、の順。
func (rt *Router) locate(ctx context.Context, lower, sender string) string {
	var matched []*model.Person
	for _, p := range rt.deps.People {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			matched = append(matched, p)
		}
	}

	switch {
	case len(matched) > 0:
		return rt.resolveAll(ctx, matched)
	case strings.Contains(lower, "everyone"):
		return rt.resolveAll(ctx, rt.deps.People)
	case selfPattern.MatchString(lower):
		target := rt.personBySender(sender)
		if target == nil {
			return fmt.Sprintf("I don't know your whereabouts, %s", sender)
		}
		return rt.resolveAll(ctx, []*model.Person{target})
	default:
		return rt.unknownPerson()
	}
}

// resolveAll は各人物の解決を並列に実行し、結果を入力順のまま改行で連結する。
// 完了順に依存せず、位置で結合する。いずれかの解決が共有カレンダーの
// 取得失敗を経由していた場合は、返信全体にbest-guessの前置きを付ける。
func (rt *Router) resolveAll(ctx context.Context, targets []*model.Person) string {
	results := make([]resolver.Resolution, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.deps.MaxConcurrent)
	for i, p := range targets {
		i, p := i, p
		g.Go(func() error {
			results[i] = rt.deps.Resolver.Resolve(gctx, p)
			return nil
		})
	}
	// Resolveは失敗しないためエラーは発生しない
	_ = g.Wait()

	degraded := false
	lines := make([]string, len(results))
	for i, res := range results {
		lines[i] = res.Text
		if res.SharedCalendarFailed {
			degraded = true
		}
	}

	reply := strings.Join(lines, "\n")
	if degraded {
		reply = "There was an error getting the out-of-office calendar, but here's my best guess:\n" + reply
	}
	return reply
}

// personBySender はsender identityに一致する人物を返す。該当なしはnil。
func (rt *Router) personBySender(sender string) *model.Person {
	lower := strings.ToLower(sender)
	for _, p := range rt.deps.People {
		if p.UserName != "" && p.UserName == lower {
			return p
		}
	}
	return nil
}

// unknownPerson は既知の人物名を列挙する定型応答を返す。
func (rt *Router) unknownPerson() string {
	var b strings.Builder
	for i, p := range rt.deps.People {
		if i > 0 {
			if i == len(rt.deps.People)-1 {
				b.WriteString(" and ")
			} else {
				b.WriteString(", ")
			}
		}
		b.WriteString(p.Name)
	}
	return fmt.Sprintf("I only know where %s are.", b.String())
}

// joke はジョークを1件取得し、サニタイズ済みの本文をそのまま返す。
func (rt *Router) joke(ctx context.Context) string {
	j, err := rt.deps.Jokes.Random(ctx)
	if err != nil {
		rt.deps.Logger.Error("ジョークの取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return "I don't feel like doing that right now :pensive:"
	}
	return rt.deps.Sanitizer.SanitizeChars(j)
}

// why は語彙バンクからランダムに組み立てた定型文を返す。
func (rt *Router) why() string {
	return fmt.Sprintf("because %s %s %s.",
		whyAntagonists[rt.randFn(len(whyAntagonists))],
		whyActions[rt.randFn(len(whyActions))],
		whyThings[rt.randFn(len(whyThings))],
	)
}

// yesNo は一様ランダムなyes/no応答を返す。
func (rt *Router) yesNo() string {
	if rt.randFn(2) == 0 {
		return "yes :thumbsup:"
	}
	return "no :thumbsdown:"
}
