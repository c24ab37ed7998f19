package main

import (
	"context"
	"log"
	"os"

	"toomi/internal/config"
	"toomi/internal/device"
	"toomi/internal/launcher"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// デバイス準備確認を作成
	sys := device.NewLinuxSystem(cfg.Device.Pattern)
	checker := device.NewChecker(sys, device.CheckerOptions{
		Pattern:  cfg.Device.Pattern,
		Module:   cfg.Device.Module,
		Delay:    cfg.Device.LauncherDelay,
		Attempts: cfg.Device.RetryAttempts,
	})

	// 起動対象のプログラム。パス解決は起動時に行われるため、
	// ヘルプ表示は実行ファイルがなくても成功する
	stream := launcher.NewExecProgram(cfg.Programs.Stream)
	menu := launcher.NewExecProgram(cfg.Programs.Menu)

	defaults := launcher.Defaults{
		Width:  cfg.Stream.Width,
		Height: cfg.Stream.Height,
		FPS:    cfg.Stream.FPS,
		Port:   cfg.Server.Port,
	}

	dispatcher := launcher.NewDispatcher(checker, stream, menu, defaults, os.Stdout, os.Stderr)
	os.Exit(dispatcher.Run(context.Background(), os.Args[1:]))
}
