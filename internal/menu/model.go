package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// 列の並び。最後のstartは選択肢を持たないボタン
const (
	columnResolution = iota
	columnFramerate
	columnQuality
	columnPort
	columnStart
)

var columnTitles = []string{"RESOLUTION", "FRAMERATE", "QUALITY", "PORT"}

// DetectFunc はカメラ検出を行う関数
// 検出できない場合は空文字列を返す
type DetectFunc func() string

// deviceDetectedMsg はバックグラウンド検出の完了を伝えるメッセージ
type deviceDetectedMsg struct {
	device string
}

// Model は対話メニューのbubbleteaモデル
type Model struct {
	cursor     int    // アクティブな列（columnResolution〜columnStart）
	selections [4]int // 各列の選択位置

	detect    DetectFunc
	detecting bool
	device    string

	selection *Selection // STARTで確定した内容
	cancelled bool
}

// NewModel は既定値を選択した状態のモデルを作成する
func NewModel(detect DetectFunc) Model {
	return Model{
		cursor: columnResolution,
		selections: [4]int{
			defaultResolutionIndex,
			defaultFramerateIndex,
			defaultQualityIndex,
			defaultPortIndex,
		},
		detect:    detect,
		detecting: detect != nil,
	}
}

// Selection は確定した選択内容を返す。中止された場合はnil
func (m Model) Selection() *Selection {
	return m.selection
}

// Cancelled はユーザーが中止したかどうかを返す
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Init はカメラ検出をバックグラウンドで開始する
func (m Model) Init() tea.Cmd {
	if m.detect == nil {
		return nil
	}

	detect := m.detect
	return func() tea.Msg {
		return deviceDetectedMsg{device: detect()}
	}
}

// Update はキー入力と検出結果を処理する
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case deviceDetectedMsg:
		m.detecting = false
		m.device = msg.device
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit

		case "left", "h":
			if m.cursor > columnResolution {
				m.cursor--
			}

		case "right", "l":
			if m.cursor < columnStart {
				m.cursor++
			}

		case "up", "k":
			if m.cursor < columnStart && m.selections[m.cursor] > 0 {
				m.selections[m.cursor]--
			}

		case "down", "j":
			if m.cursor < columnStart && m.selections[m.cursor] < len(columnLabels(m.cursor))-1 {
				m.selections[m.cursor]++
			}

		case "enter":
			if m.cursor == columnStart {
				return m.start()
			}
			// Enterで次の列へ進む
			m.cursor++

		case "s", "S":
			return m.start()
		}
	}

	return m, nil
}

// start は現在の選択を確定して終了する
func (m Model) start() (tea.Model, tea.Cmd) {
	res := Resolutions[m.selections[columnResolution]]

	m.selection = &Selection{
		Width:   res.Width,
		Height:  res.Height,
		FPS:     Framerates[m.selections[columnFramerate]].Value,
		Quality: Qualities[m.selections[columnQuality]].Value,
		Port:    Ports[m.selections[columnPort]].Value,
		Device:  m.device,
	}
	return m, tea.Quit
}

// View はメニュー画面を描画する
func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n  遠見 ストリーム設定\n")
	b.WriteString("  左右キーで列を移動、上下キーで選択、Enterで決定\n\n")

	for col := columnResolution; col < columnStart; col++ {
		active := m.cursor == col
		marker := "  "
		if active {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", marker, columnTitles[col]))

		for i, label := range columnLabels(col) {
			cursor := "   "
			if i == m.selections[col] {
				if active {
					cursor = " → "
				} else {
					cursor = " * "
				}
			}
			b.WriteString(fmt.Sprintf("%s%s\n", cursor, label))
		}
		b.WriteString("\n")
	}

	if m.cursor == columnStart {
		b.WriteString("  [ ▶ START STREAM ]\n")
	} else {
		b.WriteString("    ▶ START STREAM\n")
	}

	b.WriteString("\n")
	switch {
	case m.detecting:
		b.WriteString("  カメラを検出しています...\n")
	case m.device != "":
		b.WriteString(fmt.Sprintf("  検出されたカメラ: %s\n", m.device))
	default:
		b.WriteString("  カメラが検出されていません（起動時に自動検出を試みます）\n")
	}

	b.WriteString("\n  ← → 列移動 | ↑ ↓ 選択 | Enter: 決定 | S: 開始 | Q: 中止\n")

	return b.String()
}

// columnLabels は列の表示ラベル一覧を返す
func columnLabels(col int) []string {
	switch col {
	case columnResolution:
		labels := make([]string, len(Resolutions))
		for i, r := range Resolutions {
			labels[i] = r.Label
		}
		return labels
	case columnFramerate:
		return choiceLabels(Framerates)
	case columnQuality:
		return choiceLabels(Qualities)
	case columnPort:
		return choiceLabels(Ports)
	default:
		return nil
	}
}

func choiceLabels(choices []Choice) []string {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label
	}
	return labels
}
