// Package device はカメラデバイスの準備確認とプロビジョニングを担う
//
// # 責務
// - デバイスノード（/dev/video*）の存在確認
// - カーネルモジュール（uvcvideo）のロード・アンロード
// - デバイスノードのパーミッション設定
// - videoグループへのユーザー追加
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - ストリーム起動前にデバイスの存在を保証したい（Checker）
// - root権限でデバイスを一括セットアップしたい（Provisioner）
//
// # 仕様
// - System: OS操作の抽象化。テストではFakeSystemに差し替える
// - Checker: 存在確認＋最大1回のモジュールロード（有限リトライ）
// - Provisioner: ロード→待機→確認→（リロード再試行）→chmod→グループ追加
// - グループ追加の反映は次回ログインから
//
// # 前提要件
//   - modprobe: カーネルモジュールのロードに使用（要root、
//     非rootでは sudo -n 経由で試行する）
//   - usermod: グループ追加に使用（要root）
package device
