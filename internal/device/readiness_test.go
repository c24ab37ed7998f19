package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testCheckerOptions() CheckerOptions {
	return CheckerOptions{
		Pattern:  "/dev/video*",
		Module:   "uvcvideo",
		Delay:    time.Second,
		Attempts: 2,
	}
}

// TestEnsureReady_DeviceExists はデバイスが既にある場合の冪等性をテストする
func TestEnsureReady_DeviceExists(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem([]string{"/dev/video0", "/dev/video1"})
	checker := NewChecker(sys, testCheckerOptions())

	devices, err := checker.EnsureReady(ctx)
	if err != nil {
		t.Fatalf("EnsureReady failed: %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}

	// デバイスが存在する場合はモジュールロードを試みない
	if sys.LoadCalls() != 0 {
		t.Errorf("Expected no load attempts, got %d", sys.LoadCalls())
	}

	// 変更操作が一切行われていないことを確認
	if len(sys.Chmodded()) != 0 || len(sys.GroupAdds()) != 0 {
		t.Error("Expected no mutations when devices already exist")
	}
}

// TestEnsureReady_AppearsAfterLoad はロード後にデバイスが出現するケースをテストする
func TestEnsureReady_AppearsAfterLoad(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.AppearAfterLoads(1, []string{"/dev/video0"})
	checker := NewChecker(sys, testCheckerOptions())

	devices, err := checker.EnsureReady(ctx)
	if err != nil {
		t.Fatalf("EnsureReady failed: %v", err)
	}

	if len(devices) != 1 || devices[0] != "/dev/video0" {
		t.Fatalf("Expected /dev/video0, got %v", devices)
	}

	if sys.LoadCalls() != 1 {
		t.Errorf("Expected 1 load attempt, got %d", sys.LoadCalls())
	}

	// ロード後に待機していることを確認
	if sys.SleptTotal() != time.Second {
		t.Errorf("Expected 1s settle delay, got %v", sys.SleptTotal())
	}
}

// TestEnsureReady_NotFound はロードしてもデバイスが出現しないケースをテストする
func TestEnsureReady_NotFound(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	opts := testCheckerOptions()
	opts.Pattern = "/dev/custom-cam*"
	checker := NewChecker(sys, opts)
	checker.logf = t.Logf

	_, err := checker.EnsureReady(ctx)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}

	// エラーには設定されたパターンがそのまま現れる
	if notFound.Pattern != "/dev/custom-cam*" {
		t.Errorf("Expected configured pattern in error, got %s", notFound.Pattern)
	}

	if notFound.Remediation() == "" {
		t.Error("Expected remediation text")
	}

	// ロードは1回だけ試みる（有限リトライ: 最大2回の確認）
	if sys.LoadCalls() != 1 {
		t.Errorf("Expected exactly 1 load attempt, got %d", sys.LoadCalls())
	}
}

// TestEnsureReady_LoadFails はロード失敗時も再確認して失敗することをテストする
func TestEnsureReady_LoadFails(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetLoadError(errors.New("modprobe: not permitted"))
	checker := NewChecker(sys, testCheckerOptions())
	checker.logf = t.Logf

	_, err := checker.EnsureReady(ctx)

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
}

// TestEnsureReady_NoEscalation は権限昇格が利用できない場合の動作をテストする
func TestEnsureReady_NoEscalation(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem(nil)
	sys.SetLoadError(ErrNoEscalation)
	checker := NewChecker(sys, testCheckerOptions())

	// スキップ理由がログに出力されることを確認
	var logged bool
	checker.logf = func(format string, args ...any) {
		logged = true
		t.Logf(format, args...)
	}

	_, err := checker.EnsureReady(ctx)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if !logged {
		t.Error("Expected skip to be surfaced in the log")
	}
}

// TestEnsureReady_Idempotent は繰り返し呼び出しの安全性をテストする
func TestEnsureReady_Idempotent(t *testing.T) {
	ctx := context.Background()
	sys := NewFakeSystem([]string{"/dev/video0"})
	checker := NewChecker(sys, testCheckerOptions())

	for i := 0; i < 3; i++ {
		if _, err := checker.EnsureReady(ctx); err != nil {
			t.Fatalf("EnsureReady call %d failed: %v", i+1, err)
		}
	}

	if sys.LoadCalls() != 0 {
		t.Errorf("Expected no load attempts across repeated calls, got %d", sys.LoadCalls())
	}
}
