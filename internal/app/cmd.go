package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はチャット連携サーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandAsk は質問を1回だけ処理して標準出力に応答を表示することを示す。
	// チャット連携なしでの動作確認用。
	CommandAsk Command = "ask"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "ask":
		return CommandAsk
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
