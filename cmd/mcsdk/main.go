// Command mcsdk is a minimal demo consumer of the mclaunch SDK: it
// resolves a version (1.21 unless one is given as the first argument),
// downloads its client JAR and assets, and renders asset progress with
// a bubbletea progress bar.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrux/mclaunch"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type progressMsg int

type doneMsg struct{ err error }

type model struct {
	sdk        *mclaunch.SDK
	versionID  string
	progress   progress.Model
	percent    int
	done       bool
	err        error
	progressCh chan int
}

func newModel(sdk *mclaunch.SDK, versionID string) *model {
	return &model{
		sdk:        sdk,
		versionID:  versionID,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		progressCh: make(chan int, 64),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.runInstall, m.waitForProgress)
}

func (m *model) runInstall() tea.Msg {
	ctx := context.Background()

	if err := m.sdk.EnsureDirs(); err != nil {
		return doneMsg{err: err}
	}

	descriptor, err := m.sdk.Resolve(ctx, m.versionID, false)
	if err != nil {
		return doneMsg{err: err}
	}

	if err := m.sdk.DownloadClientJar(ctx, m.versionID); err != nil {
		return doneMsg{err: err}
	}

	_, err = m.sdk.DownloadAssets(ctx, descriptor, func(percent int) {
		m.progressCh <- percent
	})
	close(m.progressCh)
	return doneMsg{err: err}
}

func (m *model) waitForProgress() tea.Msg {
	percent, ok := <-m.progressCh
	if !ok {
		return nil
	}
	return progressMsg(percent)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.percent = int(msg)
		return m, tea.Batch(m.progress.SetPercent(float64(m.percent)/100), m.waitForProgress)
	case progress.FrameMsg:
		updated, cmd := m.progress.Update(msg)
		m.progress = updated.(progress.Model)
		return m, cmd
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) View() string {
	header := titleStyle.Render(fmt.Sprintf("Installing Minecraft %s", m.versionID))
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("%s\n%s\n", header, errStyle.Render(m.err.Error()))
		}
		return fmt.Sprintf("%s\nDone.\n", header)
	}
	return fmt.Sprintf("%s\n%s\n", header, m.progress.View())
}

func main() {
	versionID := "1.21"
	if len(os.Args) > 1 {
		versionID = os.Args[1]
	}

	dataDir, err := os.UserCacheDir()
	if err != nil {
		dataDir = "."
	}

	sdk := mclaunch.New(dataDir+"/mcsdk-demo", mclaunch.Primary)
	m := newModel(sdk, versionID)

	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
