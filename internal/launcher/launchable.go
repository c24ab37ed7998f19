package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Launchable は外部プログラムを起動する能力を表すインターフェース
// テストでは起動を記録するフェイクに差し替える
type Launchable interface {
	// Run はプログラムを起動し、終了コードを返す
	// 標準入出力は呼び出し元のものを引き継ぐ
	Run(ctx context.Context, args []string) (int, error)
}

// ExecProgram は実行ファイルとしてのLaunchable実装
// パスの解決は起動時まで遅延する。ヘルプ表示などプログラムを
// 起動しない経路では、実行ファイルが存在しなくても失敗しない
type ExecProgram struct {
	name string
}

// NewExecProgram はプログラム名からExecProgramを作成する
func NewExecProgram(name string) *ExecProgram {
	return &ExecProgram{name: name}
}

// Resolve はプログラム名から実行ファイルのパスを解決する
// 自分自身の実行ファイルと同じディレクトリを優先し、見つからなければ
// PATHから探す
func (p *ExecProgram) Resolve() (string, error) {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), p.name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(p.name)
	if err != nil {
		return "", fmt.Errorf("プログラム %s が見つかりません: %w", p.name, err)
	}

	return path, nil
}

// Run はプログラムを子プロセスとして起動する
// 標準入出力を引き継ぐため、対話的なプログラムもそのまま動作する
func (p *ExecProgram) Run(ctx context.Context, args []string) (int, error) {
	path, err := p.Resolve()
	if err != nil {
		return 1, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	// 子プロセスの終了コードをそのまま伝播する
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 1, fmt.Errorf("%s の起動に失敗: %w", path, err)
}
