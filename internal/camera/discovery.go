package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Discovery はカメラデバイスの検出機能を提供する
type Discovery interface {
	// ScanDevices はシステム内の利用可能なカメラデバイスをスキャンする
	ScanDevices(ctx context.Context) ([]string, error)

	// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
	IsDeviceAvailable(ctx context.Context, device string) bool

	// DeviceName はデバイスの表示名を取得する
	DeviceName(ctx context.Context, device string) string
}

// LinuxDiscovery はLinux環境でのカメラデバイス検出を実装する
type LinuxDiscovery struct {
	// Pattern はデバイスパスのglobパターン（例: /dev/video*）
	Pattern string
}

// NewLinuxDiscovery は新しいLinuxDiscoveryを作成する
func NewLinuxDiscovery(pattern string) Discovery {
	return &LinuxDiscovery{Pattern: pattern}
}

// ScanDevices はパターンに一致するデバイスを番号順でスキャンする
func (d *LinuxDiscovery) ScanDevices(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(d.Pattern)
	if err != nil {
		return nil, fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	// デバイス番号でソート
	sort.Slice(matches, func(i, j int) bool {
		return extractDeviceNumber(matches[i]) < extractDeviceNumber(matches[j])
	})

	var devices []string
	for _, match := range matches {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		if d.IsDeviceAvailable(ctx, match) {
			devices = append(devices, match)
		}
	}

	return devices, nil
}

// IsDeviceAvailable は指定されたデバイスが利用可能かチェックする
func (d *LinuxDiscovery) IsDeviceAvailable(_ context.Context, device string) bool {
	// デバイスファイルの存在確認
	if _, err := os.Stat(device); err != nil {
		return false
	}

	// デバイスファイルの読み取り権限チェック
	file, err := os.OpenFile(device, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	return true
}

// DeviceName はv4l2-ctlで実際のカメラ名を取得する
// 取得できない場合はデバイス番号から表示名を生成する
func (d *LinuxDiscovery) DeviceName(ctx context.Context, device string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", device, "--info")
	output, err := cmd.Output()
	if err == nil {
		// "Card type" の行からカメラ名を抽出
		for _, line := range strings.Split(string(output), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "Card type") {
				parts := strings.SplitN(line, ":", 2)
				if len(parts) == 2 {
					if cardType := strings.TrimSpace(parts[1]); cardType != "" {
						return cardType
					}
				}
			}
		}
	}

	// フォールバック: デバイス番号から生成
	return fmt.Sprintf("カメラ %d", extractDeviceNumber(device))
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

// MockDiscovery はテスト用のモックDiscovery実装
type MockDiscovery struct {
	devices []string
	names   map[string]string
}

// NewMockDiscovery は新しいMockDiscoveryを作成する
func NewMockDiscovery(devices []string) *MockDiscovery {
	names := make(map[string]string)
	for i, device := range devices {
		names[device] = fmt.Sprintf("テストカメラ %d", i+1)
	}

	return &MockDiscovery{
		devices: append([]string{}, devices...),
		names:   names,
	}
}

// ScanDevices はモックデバイス一覧を返す
func (m *MockDiscovery) ScanDevices(_ context.Context) ([]string, error) {
	return append([]string{}, m.devices...), nil
}

// IsDeviceAvailable はモックデバイスが利用可能かチェックする
func (m *MockDiscovery) IsDeviceAvailable(_ context.Context, device string) bool {
	for _, d := range m.devices {
		if d == device {
			return true
		}
	}
	return false
}

// DeviceName はモックデバイスの表示名を返す
func (m *MockDiscovery) DeviceName(_ context.Context, device string) string {
	if name, ok := m.names[device]; ok {
		return name
	}
	return device
}

// AddDevice はテスト用にデバイスを追加する
func (m *MockDiscovery) AddDevice(device string) {
	for _, d := range m.devices {
		if d == device {
			return
		}
	}

	m.devices = append(m.devices, device)
	m.names[device] = fmt.Sprintf("テストカメラ %d", len(m.devices))
}

// RemoveDevice はテスト用にデバイスを削除する
func (m *MockDiscovery) RemoveDevice(device string) {
	for i, d := range m.devices {
		if d == device {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			break
		}
	}
	delete(m.names, device)
}
