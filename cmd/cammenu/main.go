package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"toomi/internal/camera"
	"toomi/internal/config"
	"toomi/internal/launcher"
	"toomi/internal/menu"
)

func main() {
	// 対話メニューには端末が必要
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "エラー: 対話的な端末で実行してください")
		os.Exit(1)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	ctx := context.Background()

	// バックグラウンドでのカメラ検出
	detect := func() string {
		settings := camera.Settings{
			Width:   cfg.Stream.Width,
			Height:  cfg.Stream.Height,
			FPS:     cfg.Stream.FPS,
			Quality: cfg.Stream.Quality,
		}
		device, err := camera.FindCaptureDevice(ctx, camera.NewLinuxDiscovery(cfg.Device.Pattern), camera.NewFFmpegProber(settings))
		if err != nil {
			return ""
		}
		return device
	}

	final, err := tea.NewProgram(menu.NewModel(detect)).Run()
	if err != nil {
		log.Fatalf("メニューの実行に失敗しました: %v", err)
	}

	model, ok := final.(menu.Model)
	if !ok {
		log.Fatalf("メニューが予期しない状態で終了しました")
	}

	selection := model.Selection()
	if selection == nil {
		fmt.Println("\n中止しました。")
		return
	}

	// ストリーミングプログラムを起動する
	stream := launcher.NewExecProgram(cfg.Programs.Stream)
	path, err := stream.Resolve()
	if err != nil {
		log.Fatalf("ストリームプログラムの解決に失敗しました: %v", err)
	}

	args := selection.Args()
	printStartingBanner(path, args)

	code, err := stream.Run(ctx, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// printStartingBanner はストリーム開始前の案内を表示する
func printStartingBanner(path string, args []string) {
	fmt.Println()
	fmt.Println("==================================================")
	fmt.Println("  ストリームを開始します...")
	fmt.Println("==================================================")
	fmt.Println()
	fmt.Printf("  コマンド: %s %s\n", path, strings.Join(args, " "))
	fmt.Println()
	fmt.Println("  Ctrl+Cで停止")
	fmt.Println("==================================================")
	fmt.Println()
}
