package camera

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Producer は連続キャプチャの供給元を表すインターフェース
// Capturerがこれを満たす。テストではフェイクに差し替える
type Producer interface {
	Start(ctx context.Context, frames chan<- []byte, errs chan<- error)
}

// Source は1台のカメラからのフレームを複数の購読者へ配信する
type Source struct {
	device   string
	settings Settings
	producer Producer

	mu      sync.RWMutex
	status  Status
	latest  []byte
	clients map[string]chan []byte

	// キャプチャ停止後の再開待ち時間
	restartDelay time.Duration

	logf func(format string, args ...any)
}

// NewSource は新しいSourceを作成する
func NewSource(device string, settings Settings, producer Producer) *Source {
	return &Source{
		device:       device,
		settings:     settings,
		producer:     producer,
		status:       StatusInactive,
		clients:      make(map[string]chan []byte),
		restartDelay: time.Second,
		logf:         log.Printf,
	}
}

// Run はキャプチャと配信のループを実行する
// ffmpegが終了した場合は一定時間待ってから再開する（カメラの抜き差しに追従）。
// コンテキストのキャンセルで終了する
func (s *Source) Run(ctx context.Context) error {
	defer s.setStatus(StatusInactive)

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.restartDelay):
			s.logf("キャプチャを再開します: %s", s.device)
		}
	}
}

// runOnce は1回分のキャプチャセッションを実行する
func (s *Source) runOnce(ctx context.Context) {
	frames := make(chan []byte, 10)
	errs := make(chan error, 5)

	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.producer.Start(captureCtx, frames, errs)

	s.setStatus(StatusActive)

	for {
		select {
		case <-ctx.Done():
			return

		case frame := <-frames:
			s.publish(frame)

		case err := <-errs:
			if err == io.EOF {
				s.logf("キャプチャが終了しました: %s", s.device)
			} else {
				s.logf("キャプチャエラー: %v", err)
			}
			s.setStatus(StatusError)
			return
		}
	}
}

// publish は最新フレームを保存して全購読者へ配信する
func (s *Source) publish(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = frame

	for _, ch := range s.clients {
		select {
		case ch <- frame:
		default:
			// 購読者が遅い場合は古いフレームを破棄して最新を届ける
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

// Subscribe はフレーム配信の購読を開始する
// 返されたIDでUnsubscribeする
func (s *Source) Subscribe() (string, <-chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan []byte, 10)
	s.clients[id] = ch

	return id, ch
}

// Unsubscribe は購読を解除する
func (s *Source) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(ch)
	}
}

// Latest は最後に配信されたフレームを返す（まだない場合はnil）
func (s *Source) Latest() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Device はデバイスパスを返す
func (s *Source) Device() string {
	return s.device
}

// Settings は現在のキャプチャ設定を返す
func (s *Source) Settings() Settings {
	return s.settings
}

// Status は現在の状態を返す
func (s *Source) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ClientCount は現在の購読者数を返す
func (s *Source) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Source) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}
