package security

import (
	"strings"
	"unicode"
)

// ReplySanitizerService はチャット応答へ埋め込むサードパーティ由来テキスト
// （ジョーク本文、ジオコードされた地名ラベル等）の無害化インターフェース。
// 下流のチャットレンダリングへのインジェクションを防ぐ。
type ReplySanitizerService interface {
	// SanitizeChars は許可文字集合以外の文字をプレースホルダに1文字ずつ置換する。
	// 許可されるのは空白類、英数字、アンダースコア、ピリオド、コロン、
	// シングル/ダブルクォートのみ。文字数（rune数）は常に保存される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeChars(s string) string
}

// placeholder は許可されない文字の置換先。
const placeholder = '?'

// replySanitizer はReplySanitizerServiceの実装。状態を持たずスレッドセーフ。
type replySanitizer struct{}

// NewReplySanitizer はReplySanitizerServiceの新しいインスタンスを生成する。
func NewReplySanitizer() *replySanitizer {
	return &replySanitizer{}
}

// SanitizeChars は許可文字集合以外をプレースホルダに置換する。
func (replySanitizer) SanitizeChars(s string) string {
	return strings.Map(func(r rune) rune {
		if isAllowedRune(r) {
			return r
		}
		return placeholder
	}, s)
}

// isAllowedRune は応答にそのまま含めてよい文字かを判定する。
func isAllowedRune(r rune) bool {
	switch r {
	case '_', '.', ':', '\'', '"':
		return true
	}
	return unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r)
}
