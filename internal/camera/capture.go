package camera

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"
)

// Capturer はffmpegを使ってV4L2デバイスからMJPEGフレームを取得する
type Capturer struct {
	devicePath string
	settings   Settings
}

// NewCapturer は新しいCapturerを作成する
func NewCapturer(devicePath string, settings Settings) *Capturer {
	return &Capturer{
		devicePath: devicePath,
		settings:   settings,
	}
}

// CaptureFrame は1フレームをキャプチャしてJPEGバイト配列として返す
func (c *Capturer) CaptureFrame(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.settings.Width, c.settings.Height),
		"-i", c.devicePath,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", qualityToFFmpeg(c.settings.Quality),
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("フレームキャプチャに失敗: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// TestCapture はデバイステスト用の簡単なキャプチャ機能
// タイムアウト内に1フレーム取得できればデバイスは使用可能と判断する
func (c *Capturer) TestCapture(ctx context.Context) error {
	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	frame, err := c.CaptureFrame(testCtx)
	if err != nil {
		return err
	}
	if len(frame) == 0 {
		return fmt.Errorf("空のフレームが返されました: %s", c.devicePath)
	}

	return nil
}

// Start は連続キャプチャを開始する
// フレームはframesへ、エラーはerrsへ送信する。ffmpegが終了するか
// コンテキストがキャンセルされるまでブロックする
func (c *Capturer) Start(ctx context.Context, frames chan<- []byte, errs chan<- error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.settings.Width, c.settings.Height),
		"-r", strconv.Itoa(c.settings.FPS),
		"-i", c.devicePath,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", qualityToFFmpeg(c.settings.Quality),
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sendError(ctx, errs, fmt.Errorf("stdoutパイプの作成に失敗: %w", err))
		return
	}

	if err := cmd.Start(); err != nil {
		sendError(ctx, errs, fmt.Errorf("ffmpegの起動に失敗: %w", err))
		return
	}

	defer func() {
		_ = cmd.Wait() // エラーは無視（コンテキストキャンセル時に発生するため）
	}()

	splitFrames(ctx, stdout, frames, errs)
}

// splitFrames はMJPEGバイト列をJPEGマーカーでフレームに分割して送信する
func splitFrames(ctx context.Context, r io.Reader, frames chan<- []byte, errs chan<- error) {
	buffer := make([]byte, 1024*1024) // 1MBバッファ
	frameBuffer := bytes.Buffer{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := r.Read(buffer)
		if err != nil {
			if err != io.EOF {
				sendError(ctx, errs, fmt.Errorf("フレーム読み取りエラー: %w", err))
			} else {
				sendError(ctx, errs, io.EOF)
			}
			return
		}

		frameBuffer.Write(buffer[:n])

		// JPEGマーカーを探してフレームを分割
		data := frameBuffer.Bytes()
		for {
			// JPEGの開始マーカー（FF D8）を探す
			startIdx := bytes.Index(data, []byte{0xFF, 0xD8})
			if startIdx == -1 {
				break
			}

			// JPEGの終了マーカー（FF D9）を探す
			endIdx := bytes.Index(data[startIdx+2:], []byte{0xFF, 0xD9})
			if endIdx == -1 {
				// 完全なフレームがまだない
				if startIdx > 0 {
					frameBuffer.Reset()
					frameBuffer.Write(data[startIdx:])
				}
				break
			}

			// 完全なJPEGフレームを抽出
			endIdx += startIdx + 2 + 2 // マーカーのサイズを含める
			frame := make([]byte, endIdx-startIdx)
			copy(frame, data[startIdx:endIdx])

			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}

			// 処理済みデータを削除
			remaining := append([]byte{}, data[endIdx:]...)
			frameBuffer.Reset()
			frameBuffer.Write(remaining)
			data = frameBuffer.Bytes()
			if len(data) == 0 {
				break
			}
		}
	}
}

// sendError はコンテキストのキャンセルを考慮してエラーを送信する
func sendError(ctx context.Context, errs chan<- error, err error) {
	select {
	case errs <- err:
	case <-ctx.Done():
	}
}

// qualityToFFmpeg はJPEG品質(1-100)をffmpegの-q:v値(2-31、小さいほど高品質)に変換する
func qualityToFFmpeg(quality int) string {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	// 100 -> 2, 1 -> 31 の線形変換
	q := 31 - (quality-1)*29/99
	return strconv.Itoa(q)
}
