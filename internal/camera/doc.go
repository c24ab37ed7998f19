// Package camera はV4L2デバイスからのMJPEGフレーム取得を担う
//
// # 責務
// - カメラデバイスの検出と実名取得
// - キャプチャ可能なデバイスの自動判定
// - ffmpeg経由での連続MJPEGキャプチャ
// - フレームの購読者への配信と最新フレームの保持
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - デバイスを指定せずに動作するカメラを自動検出したい
// - V4L2デバイスからJPEGフレームを連続取得したい
// - 複数クライアントへ同じフレームを配信したい
//
// # 仕様
// - Discovery: /dev/video* のスキャンとv4l2-ctlによる実名取得
// - Prober: 1フレームの取得可否によるデバイス検査
// - Capturer: ffmpeg(image2pipe)によるMJPEG取得、JPEGマーカーで分割
// - Source: フレーム配信とキャプチャ失敗時の自動再開
//
// # 前提要件
//   - v4l-utils: カメラ名の取得に使用
//   - ffmpeg: 画像キャプチャとストリーミングに使用
package camera
