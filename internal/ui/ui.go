package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/desertthunder/tasksync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PairListView ViewState = iota
	ConfirmView
	SyncView
	WatchView
	ResultView
)

// ModelOpts configures a TUI [Model]. Engine, Services, and Pairs are required.
type ModelOpts struct {
	Engine   tasks.SyncEngine
	Services map[string]services.TaskService // Keyed by account email
	Pairs    []shared.SyncPair
	Backoff  tasks.Backoff
	Recorder tasks.Recorder // Optional run history sink
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	engine   tasks.SyncEngine
	services map[string]services.TaskService
	pairs    []shared.SyncPair
	backoff  tasks.Backoff
	recorder tasks.Recorder

	width  int
	height int

	pairList list.Model
	selected *shared.SyncPair

	progressChan chan tasks.ProgressUpdate
	doneChan     chan syncOutcome
	progress     tasks.ProgressUpdate
	result       *tasks.ReconcileResult
	err          error

	cycleChan  chan tasks.CycleResult
	watchDone  chan error
	stopWatch  context.CancelFunc
	lastCycle  *tasks.CycleResult
	cycleCount int
	interval   time.Duration

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	items := make([]list.Item, len(opts.Pairs))
	for i, pair := range opts.Pairs {
		items[i] = pairItem{pair: pair}
	}
	pairList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	pairList.Title = "Sync Pairs"

	return &Model{
		ctx:      ctx,
		view:     PairListView,
		engine:   opts.Engine,
		services: opts.Services,
		pairs:    opts.Pairs,
		backoff:  opts.Backoff,
		recorder: opts.Recorder,
		pairList: pairList,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init implements tea.Model. The pair list is built from config up front, so
// there is nothing to fetch.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pairList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PairListView:
			return m.handlePairListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case WatchView:
			return m.handleWatchKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		out := msg.data.(syncOutcome)
		m.result = out.result
		m.err = out.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil

	case MsgCycleFinished:
		cycle := msg.data.(tasks.CycleResult)
		m.lastCycle = &cycle
		m.cycleCount++
		m.interval = m.backoff.Next(m.interval, cycle.Succeeded())
		return m, m.waitForCycle()

	case MsgWatchStopped:
		if err, ok := msg.data.(error); ok && err != nil && !errors.Is(err, context.Canceled) {
			m.err = err
		}
		m.view = PairListView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PairListView:
		return m.renderPairList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case WatchView:
		return m.renderWatch()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePairListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "w":
		m.view = WatchView
		return m, m.startWatch()
	case "enter":
		selected := m.pairList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(pairItem); ok {
				pair := item.pair
				m.selected = &pair
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pairList, cmd = m.pairList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PairListView
		m.selected = nil
		return m, nil
	case "y":
		m.view = SyncView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleWatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.stopWatch != nil {
			m.stopWatch()
		}
		return m, tea.Quit
	case "esc":
		if m.stopWatch != nil {
			m.stopWatch()
			m.stopWatch = nil
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PairListView
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == PairListView {
		m.pairList, cmd = m.pairList.Update(msg)
	}
	return m, cmd
}

// startSync kicks off a one-off reconciliation of the selected pair in a
// goroutine. Progress flows through progressChan; the terminal outcome is
// delivered on doneChan after the progress channel closes.
func (m *Model) startSync() tea.Cmd {
	pair := *m.selected
	source, ok := m.services[pair.SourceAccount]
	if !ok {
		return func() tea.Msg {
			return syncCompleteMsg(nil, fmt.Errorf("%w: %s", shared.ErrUnknownAccount, pair.SourceAccount))
		}
	}
	target, ok := m.services[pair.TargetAccount]
	if !ok {
		return func() tea.Msg {
			return syncCompleteMsg(nil, fmt.Errorf("%w: %s", shared.ErrUnknownAccount, pair.TargetAccount))
		}
	}

	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan syncOutcome, 1)

	progressChan := m.progressChan
	doneChan := m.doneChan
	go func() {
		result, err := m.engine.Reconcile(m.ctx, progressChan, source, target, pair.ListName)
		doneChan <- syncOutcome{result: result, err: err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	doneChan := m.doneChan
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			out := <-doneChan
			return syncCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

// startWatch runs the scheduler in a goroutine with a cancelable context.
// The scheduler's log output is discarded so it cannot corrupt the terminal;
// cycle results reach the view through the OnCycle hook instead.
func (m *Model) startWatch() tea.Cmd {
	m.cycleChan = make(chan tasks.CycleResult, 8)
	m.watchDone = make(chan error, 1)
	m.lastCycle = nil
	m.cycleCount = 0
	m.interval = 0

	watchCtx, cancel := context.WithCancel(m.ctx)
	m.stopWatch = cancel

	cycleChan := m.cycleChan
	scheduler := tasks.NewScheduler(tasks.SchedulerOpts{
		Engine:   m.engine,
		Services: m.services,
		Pairs:    m.pairs,
		Backoff:  m.backoff,
		Recorder: m.recorder,
		Logger:   shared.NewLogger(io.Discard),
		OnCycle: func(cycle tasks.CycleResult) {
			select {
			case cycleChan <- cycle:
			default:
			}
		},
	})

	watchDone := m.watchDone
	go func() {
		watchDone <- scheduler.Run(watchCtx)
	}()

	return m.waitForCycle()
}

func (m *Model) waitForCycle() tea.Cmd {
	cycleChan := m.cycleChan
	watchDone := m.watchDone
	return func() tea.Msg {
		select {
		case cycle := <-cycleChan:
			return cycleFinishedMsg(cycle)
		case err := <-watchDone:
			return watchStoppedMsg(err)
		}
	}
}

func (m *Model) renderPairList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.watch, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.pairList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' now?", m.selected.ListName))
	info := fmt.Sprintf("\nSource: %s\nTarget: %s\n", m.selected.SourceAccount, m.selected.TargetAccount)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing '%s'", m.selected.ListName))

	var phase string
	switch m.progress.Phase {
	case tasks.ResolveLists:
		phase = "Resolving task lists..."
	case tasks.FetchSource, tasks.FetchTarget:
		phase = fmt.Sprintf("Fetching tasks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Plan:
		phase = "Planning changes..."
	case tasks.Apply:
		phase = fmt.Sprintf("Applying changes (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderWatch() string {
	title := styles.title.Render(fmt.Sprintf("Watching %d pairs", len(m.pairs)))

	var body string
	if m.lastCycle == nil {
		body = "Running first cycle..."
	} else {
		body = fmt.Sprintf("Cycle %d finished in %s\n", m.cycleCount, m.lastCycle.Duration.Round(time.Millisecond))
		for _, res := range m.lastCycle.Results {
			if res.Succeeded() {
				line := fmt.Sprintf("✓ %s", res.Pair)
				if res.Result != nil && res.Result.Changes() > 0 {
					line = fmt.Sprintf("%s (%d changes)", line, res.Result.Changes())
				}
				body += fmt.Sprintf("\n%s", styles.ok.Render(line))
			} else {
				body += fmt.Sprintf("\n%s", styles.err.Render(fmt.Sprintf("✗ %s: %v", res.Pair, res.Err)))
			}
		}
		if m.lastCycle.Failed > 0 {
			body += fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d of %d pairs failed", m.lastCycle.Failed, len(m.lastCycle.Results))))
		}
		body += fmt.Sprintf("\n\nNext cycle in %s", m.interval.Round(time.Second))
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nList: %s\nSource: %s (%d tasks)\nTarget: %s (%d tasks)\nCreated: %d  Updated: %d  Completed: %d  Deleted: %d",
		m.result.ListName,
		m.result.SourceAccount,
		m.result.SourceCount,
		m.result.TargetAccount,
		m.result.TargetCount,
		m.result.Created,
		m.result.Updated,
		m.result.Completed,
		m.result.Deleted,
	)
	if m.result.Changes() == 0 {
		info += "\n\nAlready in sync, nothing to do."
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
