// Package tui is the interactive terminal front end for a reconcile run.
//
// Three inputs collect the plan file, the actual-upload file and the output
// path. Enter starts the run once both inputs are set; the core's progress
// callback feeds the bar and the stats panel shows the final counts.
package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/util"
)

const (
	fieldPlan = iota
	fieldActual
	fieldOutput
	fieldCount
)

// Runner executes one reconcile run. Tests swap it for a stub.
type Runner func(reconcile.Options) (*reconcile.Result, error)

// Options configures the App.
type Options struct {
	Labels        reconcile.Labels
	DefaultOutput string // used when the output input is left empty
	PlanPath      string
	ActualPath    string
	Logger        *zerolog.Logger
	Runner        Runner
}

type progressMsg struct {
	percent int
	message string
}

type doneMsg struct {
	result *reconcile.Result
	err    error
}

// App is the bubbletea model for the reconcile screen.
type App struct {
	opts   Options
	inputs []textinput.Model
	focus  int
	bar    progress.Model

	running bool
	percent int
	status  string
	result  *reconcile.Result
	err     error
	events  chan tea.Msg

	width int
}

// NewApp builds the model with empty (or pre-filled) inputs.
func NewApp(opts Options) *App {
	if opts.Runner == nil {
		opts.Runner = reconcile.Run
	}

	prompts := []struct{ title, placeholder, value string }{
		{"File 1 (upload plan)", "path/to/plan.xlsx", opts.PlanPath},
		{"File 2 (actual uploads)", "path/to/actual.xlsx", opts.ActualPath},
		{"Output", opts.DefaultOutput, ""},
	}
	inputs := make([]textinput.Model, fieldCount)
	for i, p := range prompts {
		in := textinput.New()
		in.Prompt = p.title + ": "
		in.Placeholder = p.placeholder
		in.CharLimit = 1024
		in.SetValue(p.value)
		inputs[i] = in
	}
	inputs[fieldPlan].Focus()

	return &App{
		opts:   opts,
		inputs: inputs,
		bar:    progress.New(progress.WithDefaultGradient()),
		status: "Enter the two spreadsheet paths, then press Enter.",
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.Width = max(20, msg.Width-8)
		return a, nil

	case progressMsg:
		a.percent = msg.percent
		if msg.message != "" {
			a.status = msg.message
		}
		return a, waitForEvent(a.events)

	case doneMsg:
		a.running = false
		a.events = nil
		if msg.err != nil {
			a.err = msg.err
			a.status = "Reconcile failed: " + msg.err.Error()
			return a, nil
		}
		a.err = nil
		a.result = msg.result
		a.percent = 100
		a.status = "Saved " + msg.result.OutputPath
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "esc":
			if !a.running {
				return a, tea.Quit
			}
			return a, nil
		}
		if a.running {
			return a, nil
		}
		switch msg.String() {
		case "tab", "down":
			return a, a.setFocus(a.focus + 1)
		case "shift+tab", "up":
			return a, a.setFocus(a.focus - 1)
		case "enter":
			return a, a.submit()
		}
	}

	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return a, cmd
}

func (a *App) setFocus(i int) tea.Cmd {
	a.inputs[a.focus].Blur()
	a.focus = (i + fieldCount) % fieldCount
	return a.inputs[a.focus].Focus()
}

// submit starts a run, or moves to the first empty required input.
func (a *App) submit() tea.Cmd {
	plan := util.CleanInputPath(a.inputs[fieldPlan].Value())
	actual := util.CleanInputPath(a.inputs[fieldActual].Value())
	switch {
	case plan == "":
		return a.setFocus(fieldPlan)
	case actual == "":
		return a.setFocus(fieldActual)
	}

	for i, p := range []string{plan, actual} {
		if _, err := os.Stat(p); err != nil {
			a.err = fmt.Errorf("file %d not found: %s", i+1, p)
			a.status = a.err.Error()
			return a.setFocus(i)
		}
	}

	output := util.OutputPath(a.inputs[fieldOutput].Value(), a.opts.DefaultOutput)
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			a.err = fmt.Errorf("failed to create output directory: %w", err)
			a.status = a.err.Error()
			return nil
		}
	}

	a.running = true
	a.percent = 0
	a.result = nil
	a.err = nil
	a.status = "Reconciling..."
	a.events = make(chan tea.Msg, 128)

	opts := reconcile.Options{
		PlanPath:   plan,
		ActualPath: actual,
		OutputPath: output,
		Labels:     a.opts.Labels,
		Logger:     a.opts.Logger,
	}
	go run(a.opts.Runner, opts, a.events)
	return waitForEvent(a.events)
}

// run executes the core and reports through events. Progress updates are
// dropped when the UI falls behind; the final message is always delivered.
func run(runner Runner, opts reconcile.Options, events chan<- tea.Msg) {
	opts.Progress = func(percent int, message string) {
		select {
		case events <- progressMsg{percent: percent, message: message}:
		default:
		}
	}
	res, err := runner(opts)
	events <- doneMsg{result: res, err: err}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewApp(opts), tea.WithAltScreen()).Run()
	return err
}
