// Package tui implements the interactive wizard that walks one session
// through scoring, enhancement, the feedback loop and finalization.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/workflow"
)

type wizardState int

const (
	stateIntro wizardState = iota
	stateWorking
	stateScores
	stateDraft
	stateFeedback
	stateFinal
	stateFailed
)

// Wizard actions. Each one maps to the workflow step it drives.
const (
	actScore    = "score"
	actEnhance  = "enhance"
	actApply    = "apply"
	actFinalize = "finalize"
)

var actionLabels = map[string]string{
	actScore:    "Scoring example",
	actEnhance:  "Drafting STAR example",
	actApply:    "Applying feedback",
	actFinalize: "Polishing narrative",
}

// stepDoneMsg reports a finished workflow step back to the update loop.
type stepDoneMsg struct {
	action string
	err    error
}

// Wizard is the bubbletea model for one session's walk through the
// lifecycle. Step commands mutate the session on their own goroutine;
// the model reads it again only after the stepDoneMsg arrives.
type Wizard struct {
	ctx     context.Context
	flow    *workflow.Workflow
	session *workflow.Session

	state   wizardState
	working string
	failed  string
	stepErr error

	input  textinput.Model
	points []string
	spin   spinner.Model
	body   viewport.Model

	header   string
	rendered string

	width    int
	height   int
	quitting bool
}

// NewWizard builds the wizard over an already opened session. The
// opening screen matches wherever the session currently is in its
// lifecycle, so resuming a half-done session works the same as a
// fresh one.
func NewWizard(ctx context.Context, flow *workflow.Workflow, session *workflow.Session) *Wizard {
	ti := textinput.New()
	ti.Placeholder = "One feedback point, enter to add, enter on empty to apply"
	ti.CharLimit = 400
	ti.Width = 72

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = titleStyle

	w := &Wizard{
		ctx:     ctx,
		flow:    flow,
		session: session,
		input:   ti,
		spin:    sp,
		body:    viewport.New(76, 18),
	}
	w.syncState()
	return w
}

// Run opens the wizard over session and blocks until the user quits.
func Run(ctx context.Context, flow *workflow.Workflow, session *workflow.Session) error {
	p := tea.NewProgram(NewWizard(ctx, flow, session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (w *Wizard) Init() tea.Cmd {
	return textinput.Blink
}

func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.layout()
		return w, nil

	case spinner.TickMsg:
		if w.state != stateWorking {
			return w, nil
		}
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		return w, cmd

	case stepDoneMsg:
		w.working = ""
		if msg.err != nil {
			w.stepErr = msg.err
			w.failed = msg.action
			w.state = stateFailed
			w.refreshHeader()
			return w, nil
		}
		w.stepErr = nil
		w.failed = ""
		if msg.action == actApply {
			w.points = nil
		}
		w.syncState()
		return w, nil

	case tea.KeyMsg:
		return w.handleKey(msg)
	}

	return w, nil
}

func (w *Wizard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		w.quitting = true
		return w, tea.Quit
	}

	switch w.state {
	case stateIntro:
		switch key {
		case "enter":
			return w, w.runStep(actScore)
		case "q":
			w.quitting = true
			return w, tea.Quit
		}

	case stateScores:
		switch key {
		case "enter":
			return w, w.runStep(actEnhance)
		case "q":
			w.quitting = true
			return w, tea.Quit
		}

	case stateDraft:
		switch key {
		case "f":
			if w.session.State == workflow.StateEnhanced {
				w.state = stateFeedback
				w.points = nil
				w.input.Reset()
				w.input.Focus()
				return w, textinput.Blink
			}
		case "a":
			if w.session.State == workflow.StateFeedbackCollected {
				return w, w.runStep(actApply)
			}
		case "enter":
			return w, w.runStep(actFinalize)
		case "q":
			w.quitting = true
			return w, tea.Quit
		default:
			var cmd tea.Cmd
			w.body, cmd = w.body.Update(msg)
			return w, cmd
		}

	case stateFeedback:
		switch key {
		case "esc":
			w.points = nil
			w.input.Blur()
			w.state = stateDraft
			return w, nil
		case "enter":
			point := strings.TrimSpace(w.input.Value())
			if point != "" {
				w.points = append(w.points, point)
				w.input.Reset()
				return w, nil
			}
			w.input.Blur()
			if len(w.points) == 0 {
				w.state = stateDraft
				return w, nil
			}
			return w, w.runStep(actApply)
		default:
			var cmd tea.Cmd
			w.input, cmd = w.input.Update(msg)
			return w, cmd
		}

	case stateFinal:
		switch key {
		case "q", "enter":
			w.quitting = true
			return w, tea.Quit
		default:
			var cmd tea.Cmd
			w.body, cmd = w.body.Update(msg)
			return w, cmd
		}

	case stateFailed:
		switch key {
		case "r":
			return w, w.runStep(w.failed)
		case "q":
			w.quitting = true
			return w, tea.Quit
		}
	}

	return w, nil
}

// runStep hands one workflow step to a command and parks the UI on the
// spinner until the step reports back.
func (w *Wizard) runStep(action string) tea.Cmd {
	w.state = stateWorking
	w.working = action
	return tea.Batch(w.spin.Tick, func() tea.Msg {
		return stepDoneMsg{action: action, err: w.dispatch(action)}
	})
}

// dispatch runs the workflow step behind an action. Apply and finalize
// fold the collect transition in when the session still needs it, so a
// retry after a mid-step failure picks up from where the state machine
// actually is.
func (w *Wizard) dispatch(action string) error {
	s := w.session
	switch action {
	case actScore:
		return w.flow.Score(w.ctx, s)
	case actEnhance:
		return w.flow.Enhance(w.ctx, s)
	case actApply:
		if s.State == workflow.StateEnhanced {
			if err := w.flow.CollectFeedback(w.ctx, s, w.points); err != nil {
				return err
			}
		}
		return w.flow.ApplyFeedback(w.ctx, s)
	case actFinalize:
		if s.State == workflow.StateEnhanced {
			if err := w.flow.CollectFeedback(w.ctx, s, nil); err != nil {
				return err
			}
		}
		return w.flow.Finalize(w.ctx, s)
	default:
		return fmt.Errorf("unknown wizard action %q", action)
	}
}

// refreshHeader rebuilds the cached header line. View reads the cache
// so it never touches the session while a step command owns it.
func (w *Wizard) refreshHeader() {
	w.header = fmt.Sprintf("session %s · %s", w.session.ID, w.session.State)
	if w.session.Position != "" {
		w.header += " · " + w.session.Position
	}
}

// syncState picks the screen that matches the session's lifecycle state.
// It runs on the update goroutine only, never from a step command, so
// reading the session here cannot race with a step mutating it.
func (w *Wizard) syncState() {
	w.refreshHeader()
	switch w.session.State {
	case workflow.StateInput:
		w.state = stateIntro
	case workflow.StateScored:
		w.state = stateScores
	case workflow.StateEnhanced, workflow.StateFeedbackCollected:
		w.state = stateDraft
		w.body.SetContent(w.session.Draft.Markdown())
		w.body.GotoTop()
	case workflow.StateFinalized:
		w.state = stateFinal
		w.renderNarrative()
		w.body.SetContent(w.rendered)
		w.body.GotoTop()
	}
}

func (w *Wizard) layout() {
	bw := w.width - 4
	if bw < 20 {
		bw = 20
	}
	bh := w.height - 12
	if bh < 5 {
		bh = 5
	}
	w.body.Width = bw
	w.body.Height = bh
	w.input.Width = bw - 4
	if w.input.Width > 80 {
		w.input.Width = 80
	}
}

// renderNarrative runs the finalized narrative through glamour. The raw
// markdown stands in when rendering fails, never an empty screen.
func (w *Wizard) renderNarrative() {
	width := w.width - 4
	if width < 40 {
		width = 76
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err == nil {
		if out, rerr := r.Render(w.session.Narrative); rerr == nil {
			w.rendered = out
			return
		}
	}
	w.rendered = w.session.Narrative
}

func (w *Wizard) View() string {
	if w.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("starsmith wizard"))
	b.WriteString("  ")
	b.WriteString(faintStyle.Render(w.header))
	b.WriteString("\n\n")

	switch w.state {
	case stateIntro:
		b.WriteString(boxStyle.Render(clipLines(w.session.Example, 12)))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter: score this example  q: quit"))

	case stateWorking:
		label := actionLabels[w.working]
		if label == "" {
			label = "Working"
		}
		b.WriteString(fmt.Sprintf("  %s %s...", w.spin.View(), label))

	case stateScores:
		b.WriteString(w.renderScores())
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("enter: draft STAR example  q: quit"))

	case stateDraft:
		b.WriteString(w.body.View())
		b.WriteString("\n")
		if missing := w.session.Draft.EmptyFields(); len(missing) > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  draft is missing: %s", strings.Join(missing, ", "))))
			b.WriteString("\n")
		}
		if w.session.DraftTier.Degraded() {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  extraction: %s, review the draft closely", w.session.DraftTier)))
			b.WriteString("\n")
		}
		if w.session.State == workflow.StateFeedbackCollected {
			if len(w.session.Feedback) > 0 {
				b.WriteString(faintStyle.Render("  stored feedback:"))
				b.WriteString("\n")
				for _, p := range w.session.Feedback {
					b.WriteString(faintStyle.Render("   - " + p))
					b.WriteString("\n")
				}
			}
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("a: apply stored feedback  enter: finalize  j/k: scroll  q: quit"))
		} else {
			b.WriteString("\n")
			b.WriteString(hintStyle.Render("f: give feedback  enter: finalize  j/k: scroll  q: quit"))
		}

	case stateFeedback:
		if len(w.points) > 0 {
			b.WriteString(faintStyle.Render("  feedback so far:"))
			b.WriteString("\n")
			for _, p := range w.points {
				b.WriteString("   - " + p + "\n")
			}
			b.WriteString("\n")
		}
		b.WriteString("  " + w.input.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter: add point  enter on empty: apply  esc: back"))

	case stateFinal:
		b.WriteString(w.body.View())
		b.WriteString("\n")
		if len(w.session.Review) > 0 {
			b.WriteString(okStyle.Render("  Closing review:"))
			b.WriteString("\n")
			for _, item := range w.session.Review {
				b.WriteString("   - " + item + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("j/k: scroll  q: quit"))

	case stateFailed:
		label := actionLabels[w.failed]
		if label == "" {
			label = "Step"
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %s failed: %v", label, w.stepErr)))
		b.WriteString("\n\n")
		b.WriteString(faintStyle.Render("  The session kept its state, retrying runs the same step again."))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("r: retry  q: quit"))
	}

	b.WriteString("\n")
	return b.String()
}

func (w *Wizard) renderScores() string {
	scores := w.session.Scores
	rows := []struct {
		name string
		dim  resume.DimensionScore
	}{
		{"Context", scores.Context},
		{"Complexity", scores.Complexity},
		{"Initiative", scores.Initiative},
	}

	var b strings.Builder
	for _, row := range rows {
		line := fmt.Sprintf("  %-11s %s %d/%d", row.name, scoreGauge(row.dim.Score), row.dim.Score, resume.ScoreMax)
		if row.dim.Score < resume.ScoreTarget {
			line += "  " + warnStyle.Render("below target")
		}
		b.WriteString(line)
		b.WriteString("\n")
		for _, note := range row.dim.Feedback {
			b.WriteString(faintStyle.Render("      " + note))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if scores.MeetsTarget() {
		b.WriteString(okStyle.Render(fmt.Sprintf("  Every dimension meets the %d/%d standard.", resume.ScoreTarget, resume.ScoreMax)))
	} else {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  Lowest dimension is %d/%d, the standard is %d. Enhancement will target the gaps.",
			scores.Min(), resume.ScoreMax, resume.ScoreTarget)))
	}
	b.WriteString("\n")
	if w.session.ScoreTier.Degraded() {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  extraction: %s, treat these scores as provisional", w.session.ScoreTier)))
		b.WriteString("\n")
	}
	return b.String()
}

func scoreGauge(n int) string {
	if n < resume.ScoreMin {
		n = resume.ScoreMin
	}
	if n > resume.ScoreMax {
		n = resume.ScoreMax
	}
	filled := strings.Repeat("█", n)
	rest := strings.Repeat("░", resume.ScoreMax-n)
	style := okStyle
	if n < resume.ScoreTarget {
		style = gaugeLowStyle
	}
	return style.Render(filled) + faintStyle.Render(rest)
}

func clipLines(text string, max int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) <= max {
		return strings.Join(lines, "\n")
	}
	clipped := append([]string{}, lines[:max]...)
	clipped = append(clipped, fmt.Sprintf("... %d more lines", len(lines)-max))
	return strings.Join(clipped, "\n")
}
