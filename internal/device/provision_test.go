package device

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testProvisionerOptions() ProvisionerOptions {
	return ProvisionerOptions{
		Pattern:  "/dev/video*",
		Module:   "uvcvideo",
		Group:    "video",
		Delay:    2 * time.Second,
		Attempts: 2,
	}
}

// TestProvisioner_NotRoot は非rootでの即時失敗をテストする
func TestProvisioner_NotRoot(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetRoot(false)

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)

	err := p.Run(ctx)
	if !errors.Is(err, ErrPrivilegeRequired) {
		t.Fatalf("Expected ErrPrivilegeRequired, got %v", err)
	}

	// 副作用が一切発生していないことを確認
	if sys.LoadCalls() != 0 {
		t.Errorf("Expected no module load, got %d", sys.LoadCalls())
	}
	if len(sys.Chmodded()) != 0 {
		t.Error("Expected no permission changes")
	}
	if len(sys.GroupAdds()) != 0 {
		t.Error("Expected no group modifications")
	}
}

// TestProvisioner_Success は正常系の一連の手順をテストする
func TestProvisioner_Success(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetRoot(true)
	sys.SetInvokingUser("alice")
	sys.AppearAfterLoads(1, []string{"/dev/video0", "/dev/video1"})

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 全デバイスにパーミッションが設定されている
	chmodded := sys.Chmodded()
	for _, device := range []string{"/dev/video0", "/dev/video1"} {
		mode, ok := chmodded[device]
		if !ok {
			t.Errorf("Expected chmod on %s", device)
			continue
		}
		if mode != 0o666 {
			t.Errorf("Expected mode 0666 on %s, got %o", device, mode)
		}
	}

	// 昇格元ユーザーがグループに追加されている
	adds := sys.GroupAdds()
	if len(adds) != 1 || adds[0] != "alice:video" {
		t.Errorf("Expected alice:video group add, got %v", adds)
	}

	// 次の手順の案内が出力されている
	if !strings.Contains(out.String(), "--quick") {
		t.Errorf("Expected next-step guidance in output, got: %s", out.String())
	}
}

// TestProvisioner_ModuleLoadFails はロード失敗の即時中断をテストする
func TestProvisioner_ModuleLoadFails(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetRoot(true)
	sys.SetLoadError(errors.New("modprobe: FATAL"))

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)

	err := p.Run(ctx)

	var loadErr *ModuleLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected ModuleLoadError, got %T: %v", err, err)
	}

	// 後続の手順が実行されていないことを確認
	if len(sys.Chmodded()) != 0 || len(sys.GroupAdds()) != 0 {
		t.Error("Expected no further steps after load failure")
	}
}

// TestProvisioner_AppearsAfterReload はリロード再試行後の成功をテストする
func TestProvisioner_AppearsAfterReload(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetRoot(true)
	sys.SetInvokingUser("alice")
	// 2回目のロードで初めてデバイスが出現する
	sys.AppearAfterLoads(2, []string{"/dev/video0"})

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)
	p.logf = t.Logf

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sys.LoadCalls() != 2 {
		t.Errorf("Expected 2 load calls, got %d", sys.LoadCalls())
	}
	if sys.UnloadCalls() != 1 {
		t.Errorf("Expected 1 unload call, got %d", sys.UnloadCalls())
	}

	// リロード後でもパーミッション設定まで到達している
	if _, ok := sys.Chmodded()["/dev/video0"]; !ok {
		t.Error("Expected chmod on /dev/video0 after reload retry")
	}
}

// TestProvisioner_NotFoundAfterRetry はリロードしても未検出の場合をテストする
func TestProvisioner_NotFoundAfterRetry(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetRoot(true)

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)
	p.logf = t.Logf

	err := p.Run(ctx)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}

	if notFound.Pattern != "/dev/video*" {
		t.Errorf("Expected configured pattern in error, got %s", notFound.Pattern)
	}

	if sys.LoadCalls() != 2 {
		t.Errorf("Expected 2 load attempts, got %d", sys.LoadCalls())
	}

	// 未検出時はパーミッション設定もグループ追加も行わない
	if len(sys.Chmodded()) != 0 || len(sys.GroupAdds()) != 0 {
		t.Error("Expected no mutations when device never appears")
	}
}

// TestProvisioner_GroupAddFailureIsNonFatal はグループ追加失敗が非致命であることをテストする
func TestProvisioner_GroupAddFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem([]string{"/dev/video0"})
	sys.SetRoot(true)
	sys.SetInvokingUser("alice")
	sys.SetGroupError(errors.New("usermod: group not found"))

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)
	p.logf = t.Logf

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Expected success despite group failure, got %v", err)
	}
}

// TestProvisioner_RootUserSkipsGroupAdd は昇格元がrootの場合のスキップをテストする
func TestProvisioner_RootUserSkipsGroupAdd(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem([]string{"/dev/video0"})
	sys.SetRoot(true)
	sys.SetInvokingUser("root")

	var out bytes.Buffer
	p := NewProvisioner(sys, testProvisionerOptions(), &out)

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sys.GroupAdds()) != 0 {
		t.Errorf("Expected no group add for root, got %v", sys.GroupAdds())
	}
}
