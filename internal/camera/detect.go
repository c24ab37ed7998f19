package camera

import (
	"context"
	"fmt"
	"log"
)

// Prober は1フレームの取得可否でデバイスを検査するインターフェース
type Prober interface {
	Probe(ctx context.Context, device string) error
}

// FFmpegProber はffmpegのテストキャプチャによるProber実装
type FFmpegProber struct {
	settings Settings
}

// NewFFmpegProber は新しいFFmpegProberを作成する
func NewFFmpegProber(settings Settings) *FFmpegProber {
	return &FFmpegProber{settings: settings}
}

// Probe はデバイスから1フレーム取得できるか検査する
func (p *FFmpegProber) Probe(ctx context.Context, device string) error {
	return NewCapturer(device, p.settings).TestCapture(ctx)
}

// FindCaptureDevice はキャプチャ可能な最初のデバイスを自動検出する
// 同じ物理カメラが複数の/dev/video*を作る場合があるため、
// 実際にフレームが取得できるものだけを対象とする
func FindCaptureDevice(ctx context.Context, discovery Discovery, prober Prober) (string, error) {
	devices, err := discovery.ScanDevices(ctx)
	if err != nil {
		return "", fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	if len(devices) == 0 {
		return "", fmt.Errorf("カメラデバイスが見つかりません")
	}

	for _, device := range devices {
		log.Printf("デバイスを検査しています: %s (%s)", device, discovery.DeviceName(ctx, device))

		if err := prober.Probe(ctx, device); err != nil {
			log.Printf("  フレームを取得できません: %v", err)
			continue
		}

		log.Printf("  キャプチャ可能です")
		return device, nil
	}

	return "", fmt.Errorf("キャプチャ可能なデバイスが見つかりません（%d台を検査）", len(devices))
}
