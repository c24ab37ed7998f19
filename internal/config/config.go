package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
	Device   DeviceConfig   `yaml:"device"`
	Programs ProgramsConfig `yaml:"programs"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// 読み込みタイムアウト。書き込み側はMJPEG配信が接続を
	// 張りっぱなしにするためタイムアウトを持たない
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// StreamConfig はストリーミングのデフォルト設定
type StreamConfig struct {
	Width   int `yaml:"width"`   // 画像幅
	Height  int `yaml:"height"`  // 画像高さ
	FPS     int `yaml:"fps"`     // フレームレート (fps)
	Quality int `yaml:"quality"` // JPEG品質 (1-100)
}

// DeviceConfig はカメラデバイスとカーネルモジュールの設定
type DeviceConfig struct {
	Pattern       string        `yaml:"pattern"`        // デバイスパスのglobパターン
	Module        string        `yaml:"module"`         // カーネルモジュール名
	Group         string        `yaml:"group"`          // デバイスアクセス用グループ
	SettleDelay   time.Duration `yaml:"settle_delay"`   // モジュールロード後の待機時間（プロビジョニング）
	LauncherDelay time.Duration `yaml:"launcher_delay"` // ランチャーでの待機時間
	RetryAttempts int           `yaml:"retry_attempts"` // デバイス確認の最大試行回数
}

// ProgramsConfig は外部プログラムの設定
type ProgramsConfig struct {
	Stream string `yaml:"stream"` // ストリーミングプログラム名
	Menu   string `yaml:"menu"`   // 対話メニュープログラム名
}

// Load は設定を読み込む
// デフォルト値 → 設定ファイル（TOOMI_CONFIG） → 環境変数 の順に上書きする
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			ReadTimeout: 10 * time.Second,
		},
		Stream: StreamConfig{
			Width:   1280,
			Height:  720,
			FPS:     30,
			Quality: 80,
		},
		Device: DeviceConfig{
			Pattern:       "/dev/video*",
			Module:        "uvcvideo",
			Group:         "video",
			SettleDelay:   2 * time.Second,
			LauncherDelay: 1 * time.Second,
			RetryAttempts: 2,
		},
		Programs: ProgramsConfig{
			Stream: "camstream",
			Menu:   "cammenu",
		},
	}

	// 設定ファイルがあれば読み込む
	if path := os.Getenv("TOOMI_CONFIG"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	// 環境変数で上書き
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Device.Pattern = getEnvOrDefault("DEVICE_PATTERN", cfg.Device.Pattern)
	cfg.Device.Module = getEnvOrDefault("DEVICE_MODULE", cfg.Device.Module)
	cfg.Device.Group = getEnvOrDefault("DEVICE_GROUP", cfg.Device.Group)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// loadFile はYAML設定ファイルを読み込んでcfgに反映する
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Stream.Width <= 0 || c.Stream.Height <= 0 {
		return fmt.Errorf("無効な解像度: %dx%d", c.Stream.Width, c.Stream.Height)
	}

	if c.Stream.FPS <= 0 {
		return fmt.Errorf("無効なFPS値: %d", c.Stream.FPS)
	}

	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		return fmt.Errorf("無効なJPEG品質: %d", c.Stream.Quality)
	}

	if c.Device.Pattern == "" {
		return fmt.Errorf("デバイスパターンが設定されていません")
	}

	if c.Device.Module == "" {
		return fmt.Errorf("カーネルモジュール名が設定されていません")
	}

	if c.Device.RetryAttempts < 1 {
		return fmt.Errorf("無効な試行回数: %d", c.Device.RetryAttempts)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
