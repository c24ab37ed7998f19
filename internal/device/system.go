package device

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// System はデバイス準備に必要なOS操作を抽象化するインターフェース
// 実環境ではLinuxSystem、テストではFakeSystemを注入する
type System interface {
	// ListDevices はパターンに一致するデバイスノードを番号順で返す
	ListDevices(ctx context.Context) ([]string, error)

	// LoadModule はカーネルモジュールをロードする
	LoadModule(ctx context.Context, module string) error

	// UnloadModule はカーネルモジュールをアンロードする
	UnloadModule(ctx context.Context, module string) error

	// Chmod はデバイスノードのパーミッションを変更する
	Chmod(path string, mode os.FileMode) error

	// AddUserToGroup はユーザーをグループに追加する
	AddUserToGroup(ctx context.Context, username, group string) error

	// IsRoot は実効ユーザーがrootかどうかを返す
	IsRoot() bool

	// InvokingUser は昇格を要求した元のユーザー名を返す
	// （SUDO_USER優先、なければ現在のアカウント）
	InvokingUser() string

	// Sleep は指定時間待機する（コンテキストのキャンセルで中断）
	Sleep(ctx context.Context, d time.Duration) error
}

// LinuxSystem はLinux環境でのSystem実装
type LinuxSystem struct {
	// Pattern はデバイスノードのglobパターン（例: /dev/video*）
	Pattern string
}

// NewLinuxSystem は新しいLinuxSystemを作成する
func NewLinuxSystem(pattern string) *LinuxSystem {
	return &LinuxSystem{Pattern: pattern}
}

// ListDevices はパターンに一致するデバイスノードをスキャンする
func (s *LinuxSystem) ListDevices(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(s.Pattern)
	if err != nil {
		return nil, err
	}

	// デバイス番号でソート
	sort.Slice(matches, func(i, j int) bool {
		return extractDeviceNumber(matches[i]) < extractDeviceNumber(matches[j])
	})

	return matches, nil
}

// LoadModule はmodprobeでカーネルモジュールをロードする
// 非rootの場合は sudo -n 経由で試行し、sudoが存在しなければ
// ErrNoEscalationを返す
func (s *LinuxSystem) LoadModule(ctx context.Context, module string) error {
	return s.modprobe(ctx, module)
}

// UnloadModule はmodprobe -r でカーネルモジュールをアンロードする
func (s *LinuxSystem) UnloadModule(ctx context.Context, module string) error {
	return s.modprobe(ctx, "-r", module)
}

// modprobe は権限に応じた方法でmodprobeを実行する
func (s *LinuxSystem) modprobe(ctx context.Context, args ...string) error {
	if s.IsRoot() {
		return exec.CommandContext(ctx, "modprobe", args...).Run()
	}

	// 非root: パスワード入力なしのsudoで試行
	if _, err := exec.LookPath("sudo"); err != nil {
		return ErrNoEscalation
	}

	sudoArgs := append([]string{"-n", "modprobe"}, args...)
	return exec.CommandContext(ctx, "sudo", sudoArgs...).Run()
}

// Chmod はデバイスノードのパーミッションを変更する
func (s *LinuxSystem) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}

// AddUserToGroup はusermodでユーザーをグループに追加する
func (s *LinuxSystem) AddUserToGroup(ctx context.Context, username, group string) error {
	return exec.CommandContext(ctx, "usermod", "-aG", group, username).Run()
}

// IsRoot は実効ユーザーがrootかどうかを返す
func (s *LinuxSystem) IsRoot() bool {
	return os.Geteuid() == 0
}

// InvokingUser は昇格を要求した元のユーザー名を返す
func (s *LinuxSystem) InvokingUser() string {
	if name := os.Getenv("SUDO_USER"); name != "" {
		return name
	}

	current, err := user.Current()
	if err != nil {
		return ""
	}
	return current.Username
}

// Sleep は指定時間待機する（コンテキストのキャンセルで中断）
func (s *LinuxSystem) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var deviceNumberRe = regexp.MustCompile(`(\d+)$`)

// extractDeviceNumber はデバイスパスから末尾の番号を抽出する
func extractDeviceNumber(device string) int {
	matches := deviceNumberRe.FindStringSubmatch(device)
	if len(matches) < 2 {
		return 0
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}

	return num
}
