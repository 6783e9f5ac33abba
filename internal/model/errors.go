package model

import "fmt"

// SourceError は外部ソース呼び出しの失敗を分類する統一エラーフォーマット。
// アダプタ境界で生成され、リゾルバ内で「次のフォールバックへ進む」シグナルに
// 変換される。Intent Routerより外へは伝播しない。
type SourceError struct {
	Code    string // エラーコード
	Source  string // 失敗した外部ソース名: calendar, geocoder, nomad, joke
	Message string // 詳細メッセージ（ログ用。ユーザーには見せない）
	Err     error  // 元エラー（存在する場合）
}

// 定義済みエラーコード
const (
	// ErrCodeTransportFailure はタイムアウト・接続失敗・非2xxステータスを表す。
	ErrCodeTransportFailure = "TRANSPORT_FAILURE"
	// ErrCodeParseFailure はレスポンスボディの解析失敗を表す。
	ErrCodeParseFailure = "PARSE_FAILURE"
	// ErrCodeNotFound はジオコード候補ゼロ件など、該当なしを表す。
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeMisconfigured は認証情報やカレンダーID等の設定不足を表す。
	ErrCodeMisconfigured = "MISCONFIGURED"
)

// Error はerrorインターフェースを実装する。
func (e *SourceError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Source, e.Message)
}

// Unwrap は元エラーを返す。errors.Is/Asでの照合用。
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewTransportFailure はトランスポート失敗エラーを生成する。
func NewTransportFailure(source string, err error) *SourceError {
	return &SourceError{
		Code:    ErrCodeTransportFailure,
		Source:  source,
		Message: err.Error(),
		Err:     err,
	}
}

// NewParseFailure はレスポンス解析失敗エラーを生成する。
func NewParseFailure(source string, err error) *SourceError {
	return &SourceError{
		Code:    ErrCodeParseFailure,
		Source:  source,
		Message: err.Error(),
		Err:     err,
	}
}

// NewNotFound は該当なしエラーを生成する。
func NewNotFound(source, message string) *SourceError {
	return &SourceError{
		Code:    ErrCodeNotFound,
		Source:  source,
		Message: message,
	}
}

// NewMisconfigured は設定不足エラーを生成する。
func NewMisconfigured(source, message string) *SourceError {
	return &SourceError{
		Code:    ErrCodeMisconfigured,
		Source:  source,
		Message: message,
	}
}
