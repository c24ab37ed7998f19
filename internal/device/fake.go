package device

import (
	"context"
	"os"
	"sync"
	"time"
)

// FakeSystem はテスト用のSystem実装
// デバイスの出現・消失やロード失敗を決定的にシミュレートする
type FakeSystem struct {
	mu sync.Mutex

	// 現在存在するデバイスノード
	devices []string

	// ロード成功後に出現するデバイスノード
	devicesAfterLoad []string

	// 何回目のロードでデバイスが出現するか（0なら出現しない）
	appearAfterLoads int

	// 各操作のエラー注入
	loadErr   error
	unloadErr error
	chmodErr  error
	groupErr  error

	// 権限まわり
	root         bool
	invokingUser string

	// 呼び出し記録
	loadCalls   int
	unloadCalls int
	chmodded    map[string]os.FileMode
	groupAdds   []string
	slept       []time.Duration
}

// NewFakeSystem は新しいFakeSystemを作成する
func NewFakeSystem(devices []string) *FakeSystem {
	return &FakeSystem{
		devices:  append([]string{}, devices...),
		chmodded: make(map[string]os.FileMode),
	}
}

// ListDevices は現在のデバイス一覧を返す
func (f *FakeSystem) ListDevices(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.devices...), nil
}

// LoadModule はロードを記録し、設定に応じてデバイスを出現させる
func (f *FakeSystem) LoadModule(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loadCalls++
	if f.loadErr != nil {
		return f.loadErr
	}

	if f.appearAfterLoads > 0 && f.loadCalls >= f.appearAfterLoads {
		f.devices = append(f.devices, f.devicesAfterLoad...)
		f.devicesAfterLoad = nil
	}

	return nil
}

// UnloadModule はアンロードを記録する
func (f *FakeSystem) UnloadModule(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unloadCalls++
	return f.unloadErr
}

// Chmod はパーミッション変更を記録する
func (f *FakeSystem) Chmod(path string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.chmodErr != nil {
		return f.chmodErr
	}
	f.chmodded[path] = mode
	return nil
}

// AddUserToGroup はグループ追加を記録する
func (f *FakeSystem) AddUserToGroup(_ context.Context, username, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.groupErr != nil {
		return f.groupErr
	}
	f.groupAdds = append(f.groupAdds, username+":"+group)
	return nil
}

// IsRoot は設定されたroot状態を返す
func (f *FakeSystem) IsRoot() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root
}

// InvokingUser は設定された昇格元ユーザー名を返す
func (f *FakeSystem) InvokingUser() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invokingUser
}

// Sleep は待機を記録する（実際には待機しない）
func (f *FakeSystem) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slept = append(f.slept, d)
	return nil
}

// 以下はテストからの設定・参照用ヘルパー

// SetRoot はroot状態を設定する
func (f *FakeSystem) SetRoot(root bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.root = root
}

// SetInvokingUser は昇格元ユーザー名を設定する
func (f *FakeSystem) SetInvokingUser(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invokingUser = name
}

// SetLoadError はLoadModuleのエラーを注入する
func (f *FakeSystem) SetLoadError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// SetUnloadError はUnloadModuleのエラーを注入する
func (f *FakeSystem) SetUnloadError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloadErr = err
}

// SetGroupError はAddUserToGroupのエラーを注入する
func (f *FakeSystem) SetGroupError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupErr = err
}

// AppearAfterLoads はn回目のロード成功後にdevicesを出現させる
func (f *FakeSystem) AppearAfterLoads(n int, devices []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appearAfterLoads = n
	f.devicesAfterLoad = append([]string{}, devices...)
}

// LoadCalls はLoadModuleの呼び出し回数を返す
func (f *FakeSystem) LoadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls
}

// UnloadCalls はUnloadModuleの呼び出し回数を返す
func (f *FakeSystem) UnloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unloadCalls
}

// Chmodded はパーミッション変更の記録を返す
func (f *FakeSystem) Chmodded() map[string]os.FileMode {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[string]os.FileMode, len(f.chmodded))
	for k, v := range f.chmodded {
		result[k] = v
	}
	return result
}

// GroupAdds はグループ追加の記録（user:group形式）を返す
func (f *FakeSystem) GroupAdds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.groupAdds...)
}

// SleptTotal は記録された待機時間の合計を返す
func (f *FakeSystem) SleptTotal() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total time.Duration
	for _, d := range f.slept {
		total += d
	}
	return total
}
