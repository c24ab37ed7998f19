package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"toomi/internal/config"
	"toomi/internal/device"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	sys := device.NewLinuxSystem(cfg.Device.Pattern)
	provisioner := device.NewProvisioner(sys, device.ProvisionerOptions{
		Pattern:  cfg.Device.Pattern,
		Module:   cfg.Device.Module,
		Group:    cfg.Device.Group,
		Delay:    cfg.Device.SettleDelay,
		Attempts: cfg.Device.RetryAttempts,
	}, os.Stdout)

	if err := provisioner.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)

		if errors.Is(err, device.ErrPrivilegeRequired) {
			fmt.Fprintln(os.Stderr, "sudoを付けて実行してください: sudo provision")
		}

		var notFound *device.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprint(os.Stderr, notFound.Remediation())
		}

		os.Exit(1)
	}
}
