package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"toomi/internal/device"
)

// Mode はランチャーの動作モードを表す
type Mode int

const (
	// ModeHelp はヘルプ表示（デバイス確認なし）
	ModeHelp Mode = iota
	// ModeQuick はデフォルト設定でのストリーム開始
	ModeQuick
	// ModePassthrough は引数をそのままストリームプログラムへ渡す
	ModePassthrough
	// ModeMenu は対話メニューの起動
	ModeMenu
)

// Defaults はクイック起動時に表示するデフォルト設定
type Defaults struct {
	Width  int
	Height int
	FPS    int
	Port   int
}

// Checker はデバイス準備確認の能力を表す
// device.Checkerがこれを満たす
type Checker interface {
	EnsureReady(ctx context.Context) ([]string, error)
}

// Dispatcher は引数に応じてストリームプログラムか対話メニューを起動する
type Dispatcher struct {
	checker  Checker
	stream   Launchable
	menu     Launchable
	defaults Defaults

	out    io.Writer // 利用者向けメッセージ
	errOut io.Writer // エラーメッセージ
}

// NewDispatcher は新しいDispatcherを作成する
func NewDispatcher(checker Checker, stream, menu Launchable, defaults Defaults, out, errOut io.Writer) *Dispatcher {
	return &Dispatcher{
		checker:  checker,
		stream:   stream,
		menu:     menu,
		defaults: defaults,
		out:      out,
		errOut:   errOut,
	}
}

// Classify は先頭の引数から動作モードを判定する
func Classify(args []string) Mode {
	if len(args) == 0 {
		return ModeMenu
	}

	switch args[0] {
	case "--help", "-h":
		return ModeHelp
	case "--quick", "-q":
		return ModeQuick
	}

	// その他のフラグ形式はそのままストリームプログラムへ渡す
	if strings.HasPrefix(args[0], "--") {
		return ModePassthrough
	}

	return ModeMenu
}

// Run は引数を判定して適切なプログラムを起動し、終了コードを返す
// ヘルプ以外の全モードで、起動前にデバイス準備確認を行う
func (d *Dispatcher) Run(ctx context.Context, args []string) int {
	mode := Classify(args)

	if mode == ModeHelp {
		fmt.Fprint(d.out, Usage())
		return 0
	}

	// デバイス準備確認。失敗したら何も起動せずに終了する
	if _, err := d.checker.EnsureReady(ctx); err != nil {
		fmt.Fprintf(d.errOut, "エラー: %v\n", err)

		var notFound *device.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprint(d.errOut, notFound.Remediation())
		}

		return 1
	}

	switch mode {
	case ModeQuick:
		fmt.Fprintf(d.out, "デフォルト設定でストリームを開始します: %dx%d @%dfps (ポート %d)\n",
			d.defaults.Width, d.defaults.Height, d.defaults.FPS, d.defaults.Port)
		// --quick自体は渡さず、残りの引数だけを渡す
		return d.launch(ctx, d.stream, args[1:])

	case ModePassthrough:
		// 引数を一切加工せずに渡す
		return d.launch(ctx, d.stream, args)

	default:
		return d.launch(ctx, d.menu, nil)
	}
}

// launch はプログラムを起動して終了コードを伝播する
func (d *Dispatcher) launch(ctx context.Context, program Launchable, args []string) int {
	code, err := program.Run(ctx, args)
	if err != nil {
		fmt.Fprintf(d.errOut, "エラー: %v\n", err)
		return 1
	}
	return code
}

// Usage はランチャーの使用方法テキストを返す
func Usage() string {
	return `toomi - USBカメラストリームランチャー

使用方法:
  toomi --help | -h           このヘルプを表示
  toomi --quick | -q [引数..]  デフォルト設定(1280x720 @30fps)でストリームを開始
  toomi --<フラグ> [引数..]    引数をそのままストリームプログラムへ渡す
  toomi                       対話メニューを開く

例:
  toomi --quick --port 9090   デフォルト解像度のままポートだけ変更
  toomi --device /dev/video1  デバイスを指定してストリームを開始

事前準備（初回のみ）:
  sudo provision              デバイスのセットアップ
`
}
