package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPrivilegeRequired はroot権限なしでプロビジョニングを実行した場合のエラー
var ErrPrivilegeRequired = errors.New("root権限が必要です")

// ErrNoEscalation は権限昇格の手段（sudo）が利用できない場合のエラー
var ErrNoEscalation = errors.New("権限昇格が利用できません")

// ModuleLoadError はカーネルモジュールのロード失敗を表す
type ModuleLoadError struct {
	Module string
	Err    error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("カーネルモジュール %s のロードに失敗: %v", e.Module, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// NotFoundError はデバイスノードが見つからない場合のエラー
// Hints には利用者向けの対処方法を格納する
type NotFoundError struct {
	Pattern string
	Module  string
	Hints   []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("デバイスが見つかりません: %s", e.Pattern)
}

// Remediation は対処方法を整形したテキストを返す
func (e *NotFoundError) Remediation() string {
	var b strings.Builder
	b.WriteString("対処方法:\n")
	for i, hint := range e.Hints {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, hint)
	}
	return b.String()
}

// launcherHints はランチャー側のデバイス未検出時の対処方法
func launcherHints(pattern, module string) []string {
	return []string{
		"カメラが接続されているか確認する: lsusb",
		fmt.Sprintf("カーネルモジュールを手動でロードする: sudo modprobe %s", module),
		fmt.Sprintf("デバイスノードを確認する: ls -la %s", pattern),
	}
}

// provisionHints はプロビジョニング側のデバイス未検出時の対処方法
func provisionHints(pattern string) []string {
	return []string{
		"カメラの物理的な接続を確認する",
		"別のUSBポートに接続し直す",
		"カーネルログを確認する: dmesg | tail -20",
		fmt.Sprintf("デバイスノードを確認する: ls -la %s", pattern),
	}
}
