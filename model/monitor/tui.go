/*
Copyright © 2020 Marvin

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package monitor

import (
	"context"
	"fmt"
	"strings"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wentaojin/dbload/pkg/progress"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 60
)

var (
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type sampleMsg progress.Sample

type finishMsg progress.Finish

type runDoneMsg struct{}

type workerLine struct {
	written int
	target  int
	batches int
	state   string
	err     error
	closed  bool
}

// TUIModel renders one progress bar per worker
type TUIModel struct {
	cancel  context.CancelFunc
	spinner spinner.Model
	bars    []progressbar.Model
	lines   []workerLine

	finished    int
	failed      int
	done        bool
	Interrupted bool
}

// NewTUIModel builds the model for workers writing target records each, cancel is
// called when the user interrupts the run
func NewTUIModel(workers, target int, cancel context.CancelFunc) TUIModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("206"))

	m := TUIModel{
		cancel:  cancel,
		spinner: sp,
		bars:    make([]progressbar.Model, workers),
		lines:   make([]workerLine, workers),
	}
	for i := 0; i < workers; i++ {
		m.bars[i] = progressbar.New(progressbar.WithScaledGradient("#FF7CCB", "#FDFF8C"), progressbar.WithWidth(defaultBarWidth))
		m.lines[i] = workerLine{target: target, state: "init"}
	}
	return m
}

func (m TUIModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.Interrupted {
			// workers stop at their next batch boundary, the run then ends normally
			m.Interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		width := msg.Width - 40
		if width > maxBarWidth {
			width = maxBarWidth
		}
		if width < 10 {
			width = 10
		}
		for i := range m.bars {
			m.bars[i].Width = width
		}
		return m, nil
	case sampleMsg:
		if msg.WorkerID < 0 || msg.WorkerID >= len(m.lines) {
			return m, nil
		}
		l := &m.lines[msg.WorkerID]
		// samples may arrive out of order, a late one never rewinds the line
		if l.closed || msg.Batches < l.batches {
			return m, nil
		}
		l.written, l.target, l.batches, l.state = msg.Written, msg.Target, msg.Batches, "running"
		return m, nil
	case finishMsg:
		if msg.WorkerID < 0 || msg.WorkerID >= len(m.lines) {
			return m, nil
		}
		l := &m.lines[msg.WorkerID]
		if l.closed {
			return m, nil
		}
		l.written, l.target, l.batches, l.state, l.err = msg.Written, msg.Target, msg.Batches, msg.State, msg.Err
		l.closed = true
		m.finished++
		if msg.Err != nil {
			m.failed++
		}
		return m, nil
	case runDoneMsg:
		m.done = true
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m TUIModel) View() string {
	var b strings.Builder
	switch {
	case m.done && m.failed > 0:
		b.WriteString(failedStyle.Render(fmt.Sprintf("❌ Load finished, %d of %d workers failed", m.failed, len(m.lines))))
	case m.done:
		b.WriteString(doneStyle.Render(fmt.Sprintf("✅ Load finished, %d workers done", len(m.lines))))
	case m.Interrupted:
		fmt.Fprintf(&b, "%s Interrupting, waiting for in-flight batches... %s", m.spinner.View(), progressOf(int64(m.finished), len(m.lines)))
	default:
		fmt.Fprintf(&b, "%s Loading records... %s %s", m.spinner.View(), progressOf(int64(m.finished), len(m.lines)), helpStyle.Render("(ctrl+c to interrupt)"))
	}
	b.WriteString("\n\n")

	for i, l := range m.lines {
		fmt.Fprintf(&b, "worker %-3d %s %d/%d %s", i, m.bars[i].ViewAs(ratio(l.written, l.target)), l.written, l.target, l.state)
		if l.err != nil {
			b.WriteString(" " + failedStyle.Render(l.err.Error()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Finished returns the number of workers that reached a terminal state
func (m TUIModel) Finished() int {
	return m.finished
}

func (m TUIModel) Failed() int {
	return m.failed
}

// TUI drives a TUIModel from the progress bus
type TUI struct {
	program *tea.Program
	done    chan struct{}
	final   TUIModel
	err     error
}

// NewTUI leaves SIGINT to the caller, ctrl+c typed in the terminal cancels the run through cancel
func NewTUI(workers, target int, cancel context.CancelFunc, opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithoutSignalHandler()}, opts...)
	return &TUI{
		program: tea.NewProgram(NewTUIModel(workers, target, cancel), opts...),
		done:    make(chan struct{}),
	}
}

func (t *TUI) Attach(bus *progress.Bus) error {
	if err := bus.SubscribeSample(func(s progress.Sample) { t.program.Send(sampleMsg(s)) }); err != nil {
		return err
	}
	return bus.SubscribeFinish(func(f progress.Finish) { t.program.Send(finishMsg(f)) })
}

func (t *TUI) Start() {
	go func() {
		defer close(t.done)
		m, err := t.program.Run()
		if err != nil {
			t.err = err
			return
		}
		if fm, ok := m.(TUIModel); ok {
			t.final = fm
		}
	}()
}

// Stop renders the final frame and waits for the program to exit
func (t *TUI) Stop() error {
	t.program.Send(runDoneMsg{})
	<-t.done
	return t.err
}

// Model returns the last state, valid after Stop
func (t *TUI) Model() TUIModel {
	return t.final
}
