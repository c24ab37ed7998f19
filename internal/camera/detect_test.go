package camera

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProber はテスト用のProber実装
// working に含まれるデバイスのみ成功する
type fakeProber struct {
	working map[string]bool
	probed  []string
}

func (f *fakeProber) Probe(ctx context.Context, device string) error {
	f.probed = append(f.probed, device)
	if f.working[device] {
		return nil
	}
	return errors.New("キャプチャできません")
}

// TestFindCaptureDevice_FirstWorking は最初に動作するデバイスを返すことをテストする
func TestFindCaptureDevice_FirstWorking(t *testing.T) {
	discovery := NewMockDiscovery([]string{"/dev/video0", "/dev/video1", "/dev/video2"})

	prober := &fakeProber{working: map[string]bool{
		"/dev/video1": true,
		"/dev/video2": true,
	}}

	device, err := FindCaptureDevice(context.Background(), discovery, prober)
	if err != nil {
		t.Fatalf("FindCaptureDevice failed: %v", err)
	}
	if device != "/dev/video1" {
		t.Errorf("Expected /dev/video1, got %s", device)
	}

	// 動作するデバイスが見つかった時点で検査を打ち切る
	if len(prober.probed) != 2 {
		t.Errorf("Expected 2 probes, got %d", len(prober.probed))
	}
}

// TestFindCaptureDevice_AllFail は全デバイスが失敗した場合のエラーをテストする
func TestFindCaptureDevice_AllFail(t *testing.T) {
	discovery := NewMockDiscovery([]string{"/dev/video0", "/dev/video1"})

	prober := &fakeProber{working: map[string]bool{}}

	_, err := FindCaptureDevice(context.Background(), discovery, prober)
	if err == nil {
		t.Fatal("Expected error when no device can capture")
	}
	if !strings.Contains(err.Error(), "2") {
		t.Errorf("Expected probed count in error, got: %v", err)
	}
}

// TestFindCaptureDevice_NoDevices はデバイスが存在しない場合のエラーをテストする
func TestFindCaptureDevice_NoDevices(t *testing.T) {
	discovery := NewMockDiscovery(nil)
	prober := &fakeProber{working: map[string]bool{}}

	_, err := FindCaptureDevice(context.Background(), discovery, prober)
	if err == nil {
		t.Fatal("Expected error when no devices exist")
	}
	if len(prober.probed) != 0 {
		t.Errorf("Expected no probes without devices, got %d", len(prober.probed))
	}
}
