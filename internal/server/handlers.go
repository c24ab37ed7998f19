package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toomi/internal/camera"
)

// handleIndex はブラウザ向けの視聴ページを返す
func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

// handleStatus はカメラ状態をJSONで返す
func (s *Server) handleStatus(c *gin.Context) {
	settings := s.source.Settings()

	if s.source.Status() != camera.StatusActive {
		c.JSON(http.StatusOK, gin.H{"status": "no camera"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"device":  s.source.Device(),
		"width":   settings.Width,
		"height":  settings.Height,
		"fps":     settings.FPS,
		"clients": s.source.ClientCount(),
	})
}

// handleVideoFeed はMJPEGストリームを配信する
func (s *Server) handleVideoFeed(c *gin.Context) {
	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	// フレームの購読を開始
	id, frames := s.source.Subscribe()
	defer s.source.Unsubscribe(id)

	// 接続直後に最新フレームを送る（初期表示を早くするため）
	if latest := s.source.Latest(); latest != nil {
		if err := writeFrame(writer, latest); err != nil {
			return
		}
		flusher.Flush()
	}

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case frame, ok := <-frames:
			if !ok {
				// チャンネルがクローズされた
				return
			}

			if err := writeFrame(writer, frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeFrame はMJPEGのマルチパート形式で1フレームを書き込む
func writeFrame(w http.ResponseWriter, frame []byte) error {
	if _, err := w.Write([]byte("--frame\r\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("Content-Type: image/jpeg\r\n\r\n")); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}

// indexPage はブラウザで映像を確認するための視聴ページ
const indexPage = `<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="UTF-8">
    <title>遠見 - カメラストリーム</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #1a1a2e;
            color: #eee;
            min-height: 100vh;
            display: flex;
            flex-direction: column;
            align-items: center;
            padding: 20px;
        }
        h1 {
            margin-bottom: 20px;
            font-weight: 300;
            color: #76b900;
        }
        .container {
            background: #16213e;
            border-radius: 12px;
            padding: 20px;
            box-shadow: 0 4px 20px rgba(0,0,0,0.3);
            max-width: 100%;
        }
        .video-container {
            position: relative;
            background: #000;
            border-radius: 8px;
            overflow: hidden;
        }
        #stream {
            max-width: 100%;
            height: auto;
            display: block;
        }
        .status {
            margin-top: 15px;
            padding: 10px 15px;
            background: #0f3460;
            border-radius: 6px;
            font-size: 14px;
        }
        .status-dot {
            display: inline-block;
            width: 10px;
            height: 10px;
            border-radius: 50%;
            margin-right: 8px;
            background: #76b900;
            animation: pulse 1.5s infinite;
        }
        @keyframes pulse {
            0%, 100% { opacity: 1; }
            50% { opacity: 0.5; }
        }
        .info {
            margin-top: 15px;
            font-size: 12px;
            color: #888;
        }
    </style>
</head>
<body>
    <h1>遠見 カメラストリーム</h1>
    <div class="container">
        <div class="video-container">
            <img id="stream" src="/video_feed" alt="Camera Stream">
        </div>
        <div class="status">
            <span class="status-dot"></span>
            <span id="status-text">Streaming...</span>
        </div>
        <div class="info" id="info"></div>
    </div>
    <script>
        fetch('/status')
            .then(r => r.json())
            .then(data => {
                if (data.status === 'running') {
                    document.getElementById('info').textContent =
                        'Resolution: ' + data.width + 'x' + data.height + ' @ ' + data.fps + ' FPS';
                }
            })
            .catch(() => {});

        // エラー時は1秒後に再接続する
        document.getElementById('stream').onerror = function() {
            setTimeout(() => { this.src = '/video_feed?' + Date.now(); }, 1000);
        };
    </script>
</body>
</html>`
