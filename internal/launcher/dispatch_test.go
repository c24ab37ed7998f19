package launcher

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"toomi/internal/device"
)

// fakeLaunchable は起動を記録するテスト用のLaunchable実装
type fakeLaunchable struct {
	calls    [][]string
	exitCode int
	err      error
}

func (f *fakeLaunchable) Run(_ context.Context, args []string) (int, error) {
	f.calls = append(f.calls, append([]string{}, args...))
	return f.exitCode, f.err
}

func newTestDispatcher(sys *device.FakeSystem) (*Dispatcher, *fakeLaunchable, *fakeLaunchable, *bytes.Buffer, *bytes.Buffer) {
	checker := device.NewChecker(sys, device.CheckerOptions{
		Pattern:  "/dev/video*",
		Module:   "uvcvideo",
		Delay:    time.Second,
		Attempts: 2,
	})

	stream := &fakeLaunchable{}
	menu := &fakeLaunchable{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	defaults := Defaults{Width: 1280, Height: 720, FPS: 30, Port: 8080}
	d := NewDispatcher(checker, stream, menu, defaults, out, errOut)
	return d, stream, menu, out, errOut
}

// TestClassify はモード判定をテストする
func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want Mode
	}{
		{"引数なし", nil, ModeMenu},
		{"ヘルプ長形式", []string{"--help"}, ModeHelp},
		{"ヘルプ短形式", []string{"-h"}, ModeHelp},
		{"クイック長形式", []string{"--quick"}, ModeQuick},
		{"クイック短形式", []string{"-q", "--port", "9090"}, ModeQuick},
		{"その他のフラグ", []string{"--device", "/dev/video1"}, ModePassthrough},
		{"フラグ以外のトークン", []string{"foo"}, ModeMenu},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.args); got != tc.want {
				t.Errorf("Classify(%v) = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}

// TestDispatcher_Help はヘルプ表示がデバイス確認も起動も行わないことをテストする
func TestDispatcher_Help(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem(nil) // デバイスなしでも成功するはず

	for _, arg := range []string{"--help", "-h"} {
		d, stream, menu, out, _ := newTestDispatcher(sys)

		code := d.Run(ctx, []string{arg})
		if code != 0 {
			t.Errorf("%s: expected exit 0, got %d", arg, code)
		}

		if len(stream.calls) != 0 || len(menu.calls) != 0 {
			t.Errorf("%s: expected no program launches", arg)
		}

		if out.Len() == 0 {
			t.Errorf("%s: expected usage text", arg)
		}
	}

	// デバイス確認（＝モジュールロード試行）が発生していないことを確認
	if sys.LoadCalls() != 0 {
		t.Errorf("Expected no device check for help, got %d load calls", sys.LoadCalls())
	}
}

// TestDispatcher_DeviceMissing はデバイス未検出時に何も起動しないことをテストする
func TestDispatcher_DeviceMissing(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem(nil)

	d, stream, menu, _, errOut := newTestDispatcher(sys)

	code := d.Run(ctx, []string{"--quick"})
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}

	if len(stream.calls) != 0 || len(menu.calls) != 0 {
		t.Error("Expected no program launches when device is missing")
	}

	// 対処方法が表示されていることを確認
	if errOut.Len() == 0 {
		t.Error("Expected remediation text on stderr")
	}
}

// TestDispatcher_QuickForwardsExtraArgs はクイック起動の引数転送をテストする
func TestDispatcher_QuickForwardsExtraArgs(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem([]string{"/dev/video0"})

	d, stream, _, out, _ := newTestDispatcher(sys)

	code := d.Run(ctx, []string{"--quick", "--port", "9090"})
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d", code)
	}

	// --quick自体は渡されず、残りの引数だけが渡る
	if len(stream.calls) != 1 {
		t.Fatalf("Expected 1 stream launch, got %d", len(stream.calls))
	}
	if !reflect.DeepEqual(stream.calls[0], []string{"--port", "9090"}) {
		t.Errorf("Expected [--port 9090], got %v", stream.calls[0])
	}

	// デフォルト設定のサマリーが表示されている
	if out.Len() == 0 {
		t.Error("Expected default summary output")
	}
}

// TestDispatcher_Passthrough は引数の無加工転送をテストする
func TestDispatcher_Passthrough(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem([]string{"/dev/video0"})

	d, stream, _, _, _ := newTestDispatcher(sys)

	args := []string{"--device", "/dev/video1", "--fps", "60"}
	code := d.Run(ctx, args)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d", code)
	}

	if len(stream.calls) != 1 {
		t.Fatalf("Expected 1 stream launch, got %d", len(stream.calls))
	}
	if !reflect.DeepEqual(stream.calls[0], args) {
		t.Errorf("Expected unmodified args %v, got %v", args, stream.calls[0])
	}
}

// TestDispatcher_MenuNoArgs は引数なし起動が対話メニューを開くことをテストする
func TestDispatcher_MenuNoArgs(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem([]string{"/dev/video0"})

	d, stream, menu, _, _ := newTestDispatcher(sys)

	code := d.Run(ctx, nil)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d", code)
	}

	if len(menu.calls) != 1 {
		t.Fatalf("Expected 1 menu launch, got %d", len(menu.calls))
	}
	if len(menu.calls[0]) != 0 {
		t.Errorf("Expected menu launched with zero args, got %v", menu.calls[0])
	}
	if len(stream.calls) != 0 {
		t.Error("Expected no stream launch")
	}
}

// TestDispatcher_PropagatesExitCode は子プロセスの終了コードの伝播をテストする
func TestDispatcher_PropagatesExitCode(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem([]string{"/dev/video0"})

	d, stream, _, _, _ := newTestDispatcher(sys)
	stream.exitCode = 3

	if code := d.Run(ctx, []string{"--device", "/dev/video0"}); code != 3 {
		t.Errorf("Expected exit 3, got %d", code)
	}
}

// TestDispatcher_LaunchFailure は起動失敗時のエラー処理をテストする
func TestDispatcher_LaunchFailure(t *testing.T) {
	ctx := context.Background()
	sys := device.NewFakeSystem([]string{"/dev/video0"})

	d, stream, _, _, errOut := newTestDispatcher(sys)
	stream.exitCode = 1
	stream.err = errors.New("実行ファイルが見つかりません")

	if code := d.Run(ctx, []string{"--quick"}); code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}

	if errOut.Len() == 0 {
		t.Error("Expected error message")
	}
}
