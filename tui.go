package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxscript/beep"
	"voxscript/capability"
	"voxscript/form"
	"voxscript/hotkey"
	"voxscript/log"
	"voxscript/state"
)

// TUI message types
type stateMsg state.State
type actionMsg struct {
	action string
	status string
	err    error
}
type statusMsg struct {
	text string
	err  bool
}
type hotkeyMsg struct{ action hotkey.Action }

const (
	actionCapture  = "capture"
	actionPlayback = "playback"
	actionCopy     = "copy"
	actionDownload = "download"
	actionReset    = "reset"
)

type tuiModel struct {
	ctx    context.Context
	form   *form.Form
	states <-chan state.State

	st         state.State
	editor     textarea.Model
	notice     string // blocking capability notice
	status     string
	statusErr  bool
	deviceLine string
	width      int
	height     int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var toneColors = map[state.Tone]lipgloss.Color{
	state.ToneIndigo: lipgloss.Color("63"),
	state.ToneRed:    lipgloss.Color("196"),
	state.ToneGreen:  lipgloss.Color("34"),
	state.ToneBlue:   lipgloss.Color("33"),
	state.TonePurple: lipgloss.Color("129"),
	state.ToneGray:   lipgloss.Color("245"),
	state.ToneMuted:  lipgloss.Color("238"),
}

var iconGlyphs = map[state.Icon]string{
	state.IconMic:      "●",
	state.IconSquare:   "■",
	state.IconPlay:     "▶",
	state.IconCopy:     "⧉",
	state.IconDownload: "↓",
	state.IconReset:    "↺",
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	speakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("208")).
			Padding(1, 3)
)

func newEditor() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Start recording or type here..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetWidth(72)
	ta.SetHeight(10)
	ta.Focus()
	return ta
}

func newTUIModel(ctx context.Context, f *form.Form, states <-chan state.State, deviceLine string) tuiModel {
	return tuiModel{
		ctx:        ctx,
		form:       f,
		states:     states,
		st:         f.State(),
		editor:     newEditor(),
		deviceLine: deviceLine,
	}
}

func NewTUIProgram(m tuiModel) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

func waitForState(ch <-chan state.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForState(m.states))
}

// run executes an intent off the update loop and reports back.
func (m tuiModel) run(action string, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn()
		return actionMsg{action: action, status: status, err: err}
	}
}

func (m tuiModel) toggleCapture() tea.Cmd {
	return m.run(actionCapture, func() (string, error) {
		started, err := m.form.ToggleCapture(m.ctx)
		if err != nil {
			return "", err
		}
		if !started {
			beep.PlayEnd()
			return "Recording stopped", nil
		}
		beep.PlayStart()
		return "Listening...", nil
	})
}

func (m tuiModel) togglePlayback() tea.Cmd {
	wasSpeaking := m.st.Speaking
	return m.run(actionPlayback, func() (string, error) {
		if err := m.form.TogglePlayback(m.ctx); err != nil {
			return "", err
		}
		if wasSpeaking {
			return "Speech stopped", nil
		}
		return "Speaking...", nil
	})
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.notice != "" {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.notice = ""
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		return m, nil
	}

	controls := state.ControlsFor(m.st)
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlR:
		return m, m.toggleCapture()
	case tea.KeyCtrlP:
		if !controls.Playback.Enabled {
			return m, nil
		}
		return m, m.togglePlayback()
	case tea.KeyCtrlY:
		if !controls.Copy.Enabled {
			return m, nil
		}
		return m, m.run(actionCopy, func() (string, error) {
			return "Copied to clipboard", m.form.Copy()
		})
	case tea.KeyCtrlS:
		if !controls.Download.Enabled {
			return m, nil
		}
		return m, m.run(actionDownload, func() (string, error) {
			path, err := m.form.Download()
			return "Saved " + path, err
		})
	case tea.KeyCtrlX:
		return m, m.run(actionReset, func() (string, error) {
			return "Cleared", m.form.Reset()
		})
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != m.st.Transcript {
		m.form.Edit(v)
		m.st = m.form.State()
	}
	return m, cmd
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(20, min(msg.Width-4, 100)))
		m.editor.SetHeight(max(3, msg.Height-12))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		// the channel is latest-wins; read the store for the newest value
		m.st = m.form.State()
		if m.editor.Value() != m.st.Transcript {
			m.editor.SetValue(m.st.Transcript)
		}
		return m, waitForState(m.states)

	case actionMsg:
		m.st = m.form.State()
		switch {
		case msg.err == nil:
			if msg.status != "" {
				m.status, m.statusErr = msg.status, false
			}
		case errors.Is(msg.err, capability.ErrUnavailable) &&
			(msg.action == actionCapture || msg.action == actionPlayback):
			beep.PlayError()
			m.notice = msg.err.Error()
		default:
			log.Errorf("%s: %v", msg.action, msg.err)
			m.status, m.statusErr = msg.err.Error(), true
		}
		return m, nil

	case statusMsg:
		m.status, m.statusErr = msg.text, msg.err
		return m, nil

	case hotkeyMsg:
		if (msg.action == hotkey.Start) == m.st.Capturing {
			return m, nil
		}
		return m, m.toggleCapture()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func renderButton(b state.Button, key string) string {
	color := toneColors[b.Tone]
	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Foreground(color)
	if !b.Enabled {
		style = style.Faint(true)
	} else {
		style = style.Bold(true)
	}
	return style.Render(fmt.Sprintf("%s %s  %s", iconGlyphs[b.Icon], b.Label, hintStyle.Render(key)))
}

func (m tuiModel) View() string {
	if m.notice != "" {
		box := noticeStyle.Render(m.notice + "\n\n" + hintStyle.Render("enter/esc to dismiss"))
		if m.width == 0 || m.height == 0 {
			return box
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	c := state.ControlsFor(m.st)

	var indicators []string
	if m.st.Capturing {
		indicators = append(indicators, recStyle.Render("● REC"))
	}
	if m.st.Speaking {
		indicators = append(indicators, speakStyle.Render("▶ SPEAKING"))
	}
	header := titleStyle.Render("VoxScript")
	if len(indicators) > 0 {
		header += "  " + strings.Join(indicators, "  ")
	}

	primary := lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton(c.Capture, "ctrl+r"),
		" ",
		renderButton(c.Playback, "ctrl+p"),
	)
	secondary := lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton(c.Copy, "ctrl+y"),
		" ",
		renderButton(c.Download, "ctrl+s"),
		" ",
		renderButton(c.Reset, "ctrl+x"),
	)

	lines := []string{header, "", m.editor.View(), "", primary, secondary, ""}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, style.Render(m.status))
	}
	footer := "ctrl+c quit"
	if m.deviceLine != "" {
		footer = m.deviceLine + "  |  " + footer
	}
	lines = append(lines, hintStyle.Render(footer))
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}
