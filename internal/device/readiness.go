package device

import (
	"context"
	"log"
	"time"
)

// CheckerOptions はCheckerの動作設定
type CheckerOptions struct {
	Pattern  string        // デバイスノードのglobパターン（エラー表示用）
	Module   string        // ロードするカーネルモジュール名
	Delay    time.Duration // ロード後のデバイス列挙待ち時間
	Attempts int           // 確認の最大試行回数
}

// Checker はストリーム起動前のデバイス準備確認を担う
type Checker struct {
	sys  System
	opts CheckerOptions

	// テストで差し替えるためのログ関数
	logf func(format string, args ...any)
}

// NewChecker は新しいCheckerを作成する
func NewChecker(sys System, opts CheckerOptions) *Checker {
	if opts.Attempts < 1 {
		opts.Attempts = 2
	}
	if opts.Pattern == "" {
		opts.Pattern = "/dev/video*"
	}

	return &Checker{
		sys:  sys,
		opts: opts,
		logf: log.Printf,
	}
}

// EnsureReady はデバイスノードの存在を保証する
// デバイスが既に存在する場合は何も変更しない（冪等）。
// 存在しない場合はモジュールのロードを1回だけ試み、待機後に再確認する。
// それでも見つからない場合はNotFoundErrorを返す。
func (c *Checker) EnsureReady(ctx context.Context) ([]string, error) {
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		devices, err := c.sys.ListDevices(ctx)
		if err != nil {
			return nil, err
		}

		if len(devices) > 0 {
			return devices, nil
		}

		if attempt == c.opts.Attempts {
			break
		}

		// デバイスがない場合はモジュールのロードを試みる
		// ロード失敗は致命ではなく、待機後の再確認に進む
		if err := c.sys.LoadModule(ctx, c.opts.Module); err != nil {
			if err == ErrNoEscalation {
				c.logf("権限昇格が利用できないため、モジュール %s のロードをスキップします（sudo modprobe %s を手動で実行してください）", c.opts.Module, c.opts.Module)
			} else {
				c.logf("モジュール %s のロードに失敗しました: %v", c.opts.Module, err)
			}
		}

		if err := c.sys.Sleep(ctx, c.opts.Delay); err != nil {
			return nil, err
		}
	}

	return nil, &NotFoundError{
		Pattern: c.opts.Pattern,
		Module:  c.opts.Module,
		Hints:   launcherHints(c.opts.Pattern, c.opts.Module),
	}
}
