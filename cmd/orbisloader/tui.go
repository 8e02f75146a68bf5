package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// loadProgressMsg reports how many modules are registered so far; done
// signals the load goroutine has returned (successfully or not).
type loadProgressMsg struct {
	loaded int
	done   bool
	err    error
}

// progressModel drives a single bubbles/progress bar while
// loader.Runtime.LoadAllDependencies runs on another goroutine. It has no
// notion of a final total — module discovery is transitive and open-ended
// — so it moves closer to 100% with each update it receives, and quits
// with an empty view once the background load reports done.
type progressModel struct {
	bar     progress.Model
	updates <-chan loadProgressMsg
	loaded  int
	err     error
	finished bool
}

func newProgressModel(updates <-chan loadProgressMsg) progressModel {
	return progressModel{
		bar:     progress.New(progress.WithDefaultGradient()),
		updates: updates,
	}
}

func (m progressModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(updates <-chan loadProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return loadProgressMsg{done: true}
		}
		return msg
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProgressMsg:
		if msg.done {
			m.finished = true
			m.err = msg.err
			return m, tea.Quit
		}
		m.loaded = msg.loaded
		// Indeterminate total: asymptotically approach 100% so the bar
		// keeps visibly moving without ever claiming false completion
		// before the background load actually finishes.
		target := 1.0 - 1.0/float64(m.loaded+1)
		return m, tea.Batch(m.bar.SetPercent(target), waitForUpdate(m.updates))
	case progress.FrameMsg:
		newModel, cmd := m.bar.Update(msg)
		m.bar = newModel.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	return fmt.Sprintf("loading modules (%d so far)\n%s\n", m.loaded, m.bar.View())
}

// runWithProgress drives work in the background while updates reports
// progress, rendering a Bubble Tea program until work signals completion.
// If stdout isn't a TTY (CI, piped output), the caller should skip this
// and just call work directly; runWithProgress doesn't make that
// decision itself.
func runWithProgress(work func(updates chan<- loadProgressMsg) error) error {
	updates := make(chan loadProgressMsg, 16)
	errCh := make(chan error, 1)

	go func() {
		err := work(updates)
		errCh <- err
		updates <- loadProgressMsg{done: true, err: err}
		close(updates)
	}()

	p := tea.NewProgram(newProgressModel(updates))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	return <-errCh
}
