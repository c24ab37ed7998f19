package camera

// Status はキャプチャの動作状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // キャプチャは停止中
	StatusActive   Status = "active"   // キャプチャは動作中
	StatusError    Status = "error"    // キャプチャでエラーが発生
)

// Settings はキャプチャ設定を表す
type Settings struct {
	Width   int // 画像幅
	Height  int // 画像高さ
	FPS     int // フレームレート
	Quality int // JPEG品質 (1-100)
}
