package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"toomi/internal/camera"
	"toomi/internal/config"
	"toomi/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	port := flag.Int("port", cfg.Server.Port, "リッスンするポート番号")
	devicePath := flag.String("device", "", "ビデオデバイスのパス（例: /dev/video0）。省略時は自動検出")
	cameraIndex := flag.Int("camera", -1, "カメラ番号（--deviceの旧形式）")
	width := flag.Int("width", cfg.Stream.Width, "画像幅")
	height := flag.Int("height", cfg.Stream.Height, "画像高さ")
	fps := flag.Int("fps", cfg.Stream.FPS, "フレームレート")
	quality := flag.Int("quality", cfg.Stream.Quality, "JPEG品質 (1-100)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Stream.Width = *width
	cfg.Stream.Height = *height
	cfg.Stream.FPS = *fps
	cfg.Stream.Quality = *quality

	settings := camera.Settings{
		Width:   cfg.Stream.Width,
		Height:  cfg.Stream.Height,
		FPS:     cfg.Stream.FPS,
		Quality: cfg.Stream.Quality,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// デバイスを決定する
	var device string
	switch {
	case *devicePath != "":
		device = *devicePath
	case *cameraIndex >= 0:
		device = fmt.Sprintf("/dev/video%d", *cameraIndex)
	default:
		discovery := camera.NewLinuxDiscovery(cfg.Device.Pattern)
		prober := camera.NewFFmpegProber(settings)

		device, err = camera.FindCaptureDevice(ctx, discovery, prober)
		if err != nil {
			fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
			fmt.Fprintln(os.Stderr, "\n確認してください:")
			fmt.Fprintln(os.Stderr, "1. カメラが接続されているか (lsusb)")
			fmt.Fprintf(os.Stderr, "2. モジュールがロードされているか (sudo modprobe %s)\n", cfg.Device.Module)
			fmt.Fprintf(os.Stderr, "3. デバイスが存在するか (ls -la %s)\n", cfg.Device.Pattern)
			os.Exit(1)
		}
		log.Printf("キャプチャデバイスを自動検出しました: %s", device)
	}

	// フレーム供給源とサーバーを起動する
	source := camera.NewSource(device, settings, camera.NewCapturer(device, settings))
	srv := server.New(cfg, source)
	srv.PrintEndpoints()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Run(gctx)
	})
	g.Go(func() error {
		// サーバーが停止したらキャプチャも止める
		defer cancel()
		return srv.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("サーバーの実行に失敗しました: %v", err)
	}
}
