package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"kstub/internal/index"
	"kstub/internal/metadata"
	"kstub/internal/stubbuilder"
	"kstub/internal/ui"
)

// uiMode is the --ui setting: "auto", "on" or "off".
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	m := uiMode(strings.ToLower(strings.TrimSpace(value)))
	switch m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// enabled resolves auto against out: the progress view needs a terminal.
func (m uiMode) enabled(out *os.File) bool {
	if m == uiModeAuto {
		return isTerminal(out)
	}
	return m == uiModeOn
}

type indexOutcome struct {
	result *index.Result
	err    error
}

// runIndexWithUI runs the index in the background and follows its events in
// a Bubble Tea progress view.
func runIndexWithUI(ctx context.Context, title string, units []string, repo metadata.Repository, b *stubbuilder.Builder, opts index.Options) (*index.Result, error) {
	events := make(chan index.Event, 256)
	outcomeCh := make(chan indexOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = index.ChannelSink{Ch: events}
		res, err := index.Run(ctx, repo, b, optsCopy)
		outcomeCh <- indexOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
