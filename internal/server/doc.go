// Package server はMJPEGストリーミングのHTTPサーバーを提供する
//
// 責務:
// - HTTPサーバーの起動とグレースフルシャットダウン
// - ブラウザ向け視聴ページの配信（GET /）
// - multipart/x-mixed-replace形式のMJPEG配信（GET /video_feed）
// - カメラ状態のJSON提供（GET /status）
//
// 前提要件:
// - フレームの供給はcamera.Sourceが行う。サーバーは購読者として
//   フレームを受け取り、接続中のクライアントへ転送するだけに徹する
package server
