// Package menu はストリーミング設定を選ぶ対話メニューを提供する
//
// 責務:
// - 解像度・フレームレート・品質・ポートの選択UI
// - バックグラウンドでのカメラ検出と結果表示
// - 選択結果からのコマンドライン引数の組み立て
//
// 仕様:
// - 左右キーで列を移動、上下キーで選択肢を変更
// - Enterで次の列へ進み、STARTボタンで確定
// - sキーでどこからでも即座に開始、qキーで中止
package menu
