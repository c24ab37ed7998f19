package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"toomi/internal/camera"
	"toomi/internal/config"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	source     *camera.Source
	engine     *gin.Engine
	httpServer *http.Server
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, source *camera.Source) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		config: cfg,
		source: source,
		engine: engine,
		httpServer: &http.Server{
			Addr:    cfg.ServerAddress(),
			Handler: engine,
			// MJPEG配信は接続を張りっぱなしにするためWriteTimeoutは設定しない
			ReadTimeout: cfg.Server.ReadTimeout,
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/video_feed", s.handleVideoFeed)
	s.engine.GET("/status", s.handleStatus)
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}

// PrintEndpoints は視聴用URLの一覧を表示する
func (s *Server) PrintEndpoints() {
	ip := localIP()
	port := s.config.Server.Port

	fmt.Println()
	fmt.Println("==================================================")
	fmt.Println("  遠見 カメラストリーミングサーバー")
	fmt.Println("==================================================")
	fmt.Println()
	fmt.Println("  視聴ページ:")
	fmt.Printf("    http://%s:%d/\n", ip, port)
	fmt.Println()
	fmt.Println("  映像フィード:")
	fmt.Printf("    http://%s:%d/video_feed\n", ip, port)
	fmt.Println()
	fmt.Println("  ステータスAPI:")
	fmt.Printf("    http://%s:%d/status\n", ip, port)
	fmt.Println()
	fmt.Println("  Ctrl+Cで停止")
	fmt.Println("==================================================")
	fmt.Println()
}

// localIP は外部から到達可能なローカルIPアドレスを返す
// 実際に送信はせず、経路選択の結果から自分のアドレスを得る
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "localhost"
	}
	return addr.IP.String()
}
