package menu

import "strconv"

// Resolution は解像度の選択肢
type Resolution struct {
	Label  string
	Width  int
	Height int
}

// Choice は数値ひとつの選択肢（フレームレート・品質・ポート）
type Choice struct {
	Label string
	Value int
}

// 選択肢の一覧
var (
	Resolutions = []Resolution{
		{"4K Ultra HD", 3840, 2160},
		{"1080p Full HD", 1920, 1080},
		{"720p HD", 1280, 720},
		{"480p SD", 640, 480},
		{"360p Low", 480, 360},
	}

	Framerates = []Choice{
		{"60 FPS (Smooth)", 60},
		{"30 FPS (Standard)", 30},
		{"24 FPS (Cinematic)", 24},
		{"15 FPS (Low bandwidth)", 15},
	}

	Qualities = []Choice{
		{"High (90%)", 90},
		{"Medium (80%)", 80},
		{"Low (60%)", 60},
	}

	Ports = []Choice{
		{"8080 (Default)", 8080},
		{"8000", 8000},
		{"5000", 5000},
		{"3000", 3000},
	}
)

// 既定の選択位置（720p・30fps・Medium・8080）
const (
	defaultResolutionIndex = 2
	defaultFramerateIndex  = 1
	defaultQualityIndex    = 1
	defaultPortIndex       = 0
)

// Selection は確定した選択内容
type Selection struct {
	Width   int
	Height  int
	FPS     int
	Quality int
	Port    int
	Device  string // カメラ検出に成功した場合のみ設定される
}

// Args はストリーミングプログラムへ渡す引数を組み立てる
func (s Selection) Args() []string {
	args := []string{
		"--width", strconv.Itoa(s.Width),
		"--height", strconv.Itoa(s.Height),
		"--fps", strconv.Itoa(s.FPS),
		"--quality", strconv.Itoa(s.Quality),
		"--port", strconv.Itoa(s.Port),
	}

	if s.Device != "" {
		args = append(args, "--device", s.Device)
	}

	return args
}
