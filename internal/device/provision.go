package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"
)

// ProvisionerOptions はProvisionerの動作設定
type ProvisionerOptions struct {
	Pattern  string        // デバイスノードのglobパターン（エラー表示用）
	Module   string        // ロードするカーネルモジュール名
	Group    string        // デバイスアクセス用グループ名
	Delay    time.Duration // ロード後のデバイス列挙待ち時間
	Attempts int           // 確認の最大試行回数
}

// Provisioner はroot権限でのデバイス一括セットアップを担う
type Provisioner struct {
	sys  System
	opts ProvisionerOptions
	out  io.Writer

	logf func(format string, args ...any)
}

// NewProvisioner は新しいProvisionerを作成する
// out には利用者向けの進捗と案内を出力する
func NewProvisioner(sys System, opts ProvisionerOptions, out io.Writer) *Provisioner {
	if opts.Attempts < 1 {
		opts.Attempts = 2
	}
	if opts.Pattern == "" {
		opts.Pattern = "/dev/video*"
	}

	return &Provisioner{
		sys:  sys,
		opts: opts,
		out:  out,
		logf: log.Printf,
	}
}

// Run はプロビジョニングを実行する
// 手順: 権限確認 → モジュールロード → 待機 → デバイス確認
// （未検出ならアンロード→リロード→再確認）→ パーミッション設定
// → グループ追加（ベストエフォート）
func (p *Provisioner) Run(ctx context.Context) error {
	if !p.sys.IsRoot() {
		return ErrPrivilegeRequired
	}

	devices, err := p.ensureDevices(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "検出されたデバイス:\n")
	for _, device := range devices {
		fmt.Fprintf(p.out, "  %s\n", device)
	}

	// 全デバイスノードに読み書き権限を付与
	for _, device := range devices {
		if err := p.sys.Chmod(device, 0o666); err != nil {
			return fmt.Errorf("%s のパーミッション設定に失敗: %w", device, err)
		}
	}

	p.addToGroup(ctx)

	fmt.Fprintf(p.out, "\nセットアップが完了しました。次のコマンドでストリームを開始できます:\n")
	fmt.Fprintf(p.out, "  toomi --quick    # デフォルト設定で起動\n")
	fmt.Fprintf(p.out, "  toomi            # 対話メニューで起動\n")

	return nil
}

// ensureDevices はモジュールをロードしてデバイスノードの出現を待つ
// 1回目の確認で見つからない場合はアンロード→リロードして再確認する
func (p *Provisioner) ensureDevices(ctx context.Context) ([]string, error) {
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			// リロード前のアンロードはベストエフォート
			if err := p.sys.UnloadModule(ctx, p.opts.Module); err != nil {
				p.logf("モジュール %s のアンロードに失敗しました（無視して続行）: %v", p.opts.Module, err)
			}
		}

		if err := p.sys.LoadModule(ctx, p.opts.Module); err != nil {
			return nil, &ModuleLoadError{Module: p.opts.Module, Err: err}
		}

		// デバイス列挙を待つ
		if err := p.sys.Sleep(ctx, p.opts.Delay); err != nil {
			return nil, err
		}

		devices, err := p.sys.ListDevices(ctx)
		if err != nil {
			return nil, err
		}

		if len(devices) > 0 {
			return devices, nil
		}

		if attempt >= p.opts.Attempts {
			return nil, &NotFoundError{
				Pattern: p.opts.Pattern,
				Module:  p.opts.Module,
				Hints:   provisionHints(p.opts.Pattern),
			}
		}

		p.logf("デバイスが見つかりません。モジュール %s をリロードして再確認します", p.opts.Module)
	}
}

// addToGroup は昇格元のユーザーをデバイスアクセス用グループに追加する
// 失敗しても処理は続行する（次回ログインから有効になる旨を案内）
func (p *Provisioner) addToGroup(ctx context.Context) {
	username := p.sys.InvokingUser()
	if username == "" || username == "root" {
		return
	}

	if err := p.sys.AddUserToGroup(ctx, username, p.opts.Group); err != nil {
		p.logf("ユーザー %s の %s グループへの追加に失敗しました（続行します）: %v", username, p.opts.Group, err)
		return
	}

	fmt.Fprintf(p.out, "ユーザー %s を %s グループに追加しました（次回ログインから有効）\n", username, p.opts.Group)
}
