package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"anisync/internal/shared"
	"anisync/internal/sync"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StartView ViewState = iota
	RunView
	ResultView
)

// maxLogLines bounds the progress history shown in [RunView].
const maxLogLines = 8

// Engine is the part of [sync.Engine] the TUI drives.
type Engine interface {
	Run(ctx context.Context, sourceUser, destUser string, opts sync.Options, progress chan<- sync.ProgressUpdate) (*sync.Summary, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	engine     Engine
	sourceUser string
	destUser   string
	opts       sync.Options

	confirmer    *Confirmer
	progressChan chan sync.ProgressUpdate
	doneChan     chan syncDoneMsg
	cancelRun    context.CancelFunc
	quitting     bool

	progress sync.ProgressUpdate
	log      []string
	pending  *decisionRequest
	summary  *sync.Summary
	err      error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI model for mirroring sourceUser's list onto
// destUser's. Unless opts already carries a confirmer (a forced run), the
// model installs its own [Confirmer] before the run starts.
func NewModel(ctx context.Context, engine Engine, sourceUser, destUser string, opts sync.Options) *Model {
	return &Model{
		ctx:        ctx,
		view:       StartView,
		engine:     engine,
		sourceUser: sourceUser,
		destUser:   destUser,
		opts:       opts,
		confirmer:  newConfirmer(),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Run drives a full mirror through the TUI and returns the run's summary.
// Quitting before the run starts returns a nil summary and nil error;
// quitting mid-run cancels the engine and returns once it has stopped, with
// the summary tallying the writes that landed before the stop.
func Run(ctx context.Context, engine Engine, sourceUser, destUser string, opts sync.Options) (*sync.Summary, error) {
	final, err := tea.NewProgram(NewModel(ctx, engine, sourceUser, destUser, opts)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	m := final.(*Model)
	return m.summary, m.err
}

// Init implements [tea.Model]. The run waits for the operator's go-ahead in
// [StartView], so there is nothing to kick off yet.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StartView:
			return m.handleStartKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressMsg:
		m.progress = sync.ProgressUpdate(msg)
		if m.progress.Message != "" {
			m.log = append(m.log, m.progress.Message)
			if len(m.log) > maxLogLines {
				m.log = m.log[len(m.log)-maxLogLines:]
			}
		}
		return m, m.waitForProgress()

	case decisionMsg:
		if msg.reply == nil {
			return m, nil
		}
		req := decisionRequest(msg)
		if m.quitting {
			// The operator already asked out; decline so the engine unwinds.
			req.reply <- decisionAbort
			return m, m.waitForDecision()
		}
		m.pending = &req
		return m, nil

	case syncDoneMsg:
		m.summary = msg.summary
		m.err = msg.err
		if m.quitting {
			if errors.Is(m.err, context.Canceled) {
				m.err = fmt.Errorf("%w: run canceled", shared.ErrUserAbort)
			}
			return m, tea.Quit
		}
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case StartView:
		return m.renderStart()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleStartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = RunView
		return m, m.startRun()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The engine goroutine owns the writes and the audit log, so quitting
	// cancels the run and exits once the engine has stopped rather than
	// abandoning it mid-write.
	if key.Matches(msg, m.keys.quit) {
		if !m.quitting {
			m.quitting = true
			m.cancelRun()
			if m.pending != nil {
				return m, m.answer(decisionAbort)
			}
		}
		return m, nil
	}

	if m.pending == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.answer(decisionApply)
	case key.Matches(msg, m.keys.skip):
		return m, m.answer(decisionSkip)
	case key.Matches(msg, m.keys.force):
		return m, m.answer(decisionForce)
	case key.Matches(msg, m.keys.no):
		return m, m.answer(decisionAbort)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

// startRun launches the engine on its own goroutine and arms the two
// channel pumps: one for progress updates, one for pending confirmations.
func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan sync.ProgressUpdate, 50)
	m.doneChan = make(chan syncDoneMsg, 1)
	if m.opts.Confirmer == nil {
		m.opts.Confirmer = m.confirmer
	}

	runCtx, cancel := context.WithCancel(m.ctx)
	m.cancelRun = cancel

	go func() {
		summary, err := m.engine.Run(runCtx, m.sourceUser, m.destUser, m.opts, m.progressChan)
		cancel()
		m.doneChan <- syncDoneMsg{summary: summary, err: err}
		close(m.confirmer.requests)
		close(m.progressChan)
	}()

	return tea.Batch(m.waitForProgress(), m.waitForDecision())
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.doneChan
		}
		return progressMsg(update)
	}
}

func (m *Model) waitForDecision() tea.Cmd {
	return func() tea.Msg {
		req, ok := <-m.confirmer.requests
		if !ok {
			return nil
		}
		return decisionMsg(req)
	}
}

// answer replies to the pending confirmation and re-arms the decision pump.
func (m *Model) answer(d decision) tea.Cmd {
	m.pending.reply <- d
	m.pending = nil
	return m.waitForDecision()
}

func (m *Model) renderStart() string {
	title := styles.title.Render(fmt.Sprintf("Mirror %s's list onto %s?", m.sourceUser, m.destUser))

	var policy []string
	if m.opts.DryRun {
		policy = append(policy, "dry run: nothing will be written")
	}
	if m.opts.DeleteUnmapped {
		policy = append(policy, styles.warn.Render("delete-unmapped is on: destination entries missing from the source will be removed"))
	}
	if len(m.opts.Protected) > 0 {
		protected := make([]string, len(m.opts.Protected))
		for i, s := range m.opts.Protected {
			protected[i] = string(s)
		}
		policy = append(policy, fmt.Sprintf("protected statuses: %s", strings.Join(protected, ", ")))
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "start")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "cancel")),
	})

	body := strings.Join(policy, "\n")
	if body != "" {
		body += "\n\n"
	}

	return fmt.Sprintf("%s\n%s%s", title, body, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render(fmt.Sprintf("Syncing %s -> %s", m.sourceUser, m.destUser))

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.quitting {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("canceling..."))
	} else if m.pending != nil {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.pending.op.Describe()))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.skip, m.keys.force, m.keys.no}))
	} else {
		b.WriteString("\n")
		b.WriteString(styles.help.Render("waiting..."))
	}

	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)), helpView)
	}

	title := styles.ok.Render("✓ Sync Complete")
	info := fmt.Sprintf(
		"\nCreated: %d\nUpdated: %d\nDeleted: %d\nSkipped: %d\nRequests: %d\n",
		m.summary.Created, m.summary.Updated, m.summary.Deleted, m.summary.Skipped, m.summary.Requests,
	)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
