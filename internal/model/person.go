// Package model はドメインモデルを定義する。
package model

// HomeLocation は人物の定常所在地（ホームベース）を表す。
type HomeLocation struct {
	City    string  `yaml:"city"`
	Country string  `yaml:"country"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
}

// Person は所在地解決の対象となる人物を表す。
// 設定ファイルからプロセス起動時に1回読み込み、イミュータブルとして扱う。
type Person struct {
	// Name はクエリ照合のキーとなる表示名（ロスター内で一意）。
	Name string `yaml:"name"`
	// UserName はチャット連携のsender identityと照合するユーザー名（小文字）。
	UserName string `yaml:"user_name"`
	// CalendarID は個人カレンダーのID。空の場合は個人カレンダー参照をスキップする。
	CalendarID string `yaml:"calendar_id"`
	// NomadAccount はトラッキングサービスのアカウント名（例: "@trevorgerhardt"）。
	// 設定されている場合はトラッキングサービスが最優先の確定的な情報源となり、
	// カレンダーベースの解決ステップは実行されない。
	NomadAccount string `yaml:"nomad_account"`
	// Home は最終フォールバックの定常所在地。nilの場合は「所在不明」応答になる。
	Home *HomeLocation `yaml:"home"`
}
