package pipeline

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/metalagman/starsmith/internal/adkexec"
	"github.com/metalagman/starsmith/internal/backend"
	"github.com/metalagman/starsmith/internal/extract"
	"github.com/metalagman/starsmith/internal/logging"
	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/roles"
	"github.com/rs/zerolog"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/loopagent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// DoneMarker is the completion signal conversational roles emit when the
// narrative is finished.
const DoneMarker = "RESUME_COMPLETE"

const stateNextSpeaker = "next_speaker"

// RunNegotiation drives an open-ended conversation over the task until a
// team role signals completion or the turn budget runs out. A nil team
// means the default negotiator roster; a non-positive budget falls back
// to the coordinator's configured budget. The run accumulated so far
// accompanies any error.
func (c *Coordinator) RunNegotiation(ctx context.Context, task string, team []string, turnBudget int) (*Run, error) {
	if turnBudget <= 0 {
		turnBudget = c.budget
	}
	if turnBudget <= 0 {
		return nil, fmt.Errorf("negotiation requires a positive turn budget")
	}
	if len(team) == 0 {
		team = roles.Negotiators()
	}
	for _, name := range team {
		if roles.Get(name) == nil {
			return nil, fmt.Errorf("unknown role %q in negotiation team", name)
		}
	}

	run := NewRun(task, turnBudget)
	data := roles.PromptData{
		Category:    string(extract.Classify(task)),
		TargetScore: resume.ScoreTarget,
		DoneMarker:  DoneMarker,
	}

	neg, err := NewNegotiation(c.stage, c.gen, run, team, data, c.OnTurn)
	if err != nil {
		return run, err
	}

	if err := adkexec.Run(ctx, neg, genai.NewContentFromText(task, genai.RoleUser)); err != nil {
		return run, err
	}

	// A run that somehow leaves the loop still open counts as
	// budget-limited rather than running forever.
	run.Complete(TurnBudgetExhausted)
	return run, nil
}

// Negotiation is the open-ended conversation as an ADK loop agent: a
// selector picks the next speaker, a speaker agent voices that role.
type Negotiation struct {
	agent.Agent
	logger zerolog.Logger
	stage  *Stage
	gen    backend.Generator
	run    *Run
	team   []string
	data   roles.PromptData
	onTurn func(Turn)
}

// NewNegotiation assembles the negotiation loop over an existing run.
func NewNegotiation(stage *Stage, gen backend.Generator, run *Run, team []string, data roles.PromptData, onTurn func(Turn)) (*Negotiation, error) {
	n := &Negotiation{
		logger: logging.Component("negotiation"),
		stage:  stage,
		gen:    gen,
		run:    run,
		team:   team,
		data:   data,
		onTurn: onTurn,
	}

	selectorAgent, err := n.newSelectorAgent()
	if err != nil {
		return nil, fmt.Errorf("create selector agent: %w", err)
	}
	speakerAgent, err := n.newSpeakerAgent()
	if err != nil {
		return nil, fmt.Errorf("create speaker agent: %w", err)
	}
	loopAgent, err := n.newLoopAgent(selectorAgent, speakerAgent)
	if err != nil {
		return nil, fmt.Errorf("create negotiation loop agent: %w", err)
	}

	n.Agent = loopAgent
	return n, nil
}

func (n *Negotiation) newLoopAgent(selectorAgent, speakerAgent agent.Agent) (agent.Agent, error) {
	// One spare iteration lets the selector observe a closing turn that
	// did not exhaust the budget.
	return loopagent.New(loopagent.Config{
		MaxIterations: uint(n.run.Budget) + 1,
		AgentConfig: agent.Config{
			Name:        "NegotiationLoop",
			Description: "Alternates speaker selection and speaking until the resume is complete.",
			SubAgents:   []agent.Agent{selectorAgent, speakerAgent},
		},
	})
}

func (n *Negotiation) newSelectorAgent() (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        "SpeakerSelector",
		Description: "Picks which role speaks next, or stops a finished run.",
		Run:         n.runSelector,
	})
}

func (n *Negotiation) runSelector(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
	l := n.logger.With().
		Str("agent_name", ctx.Agent().Name()).
		Str("invocation_id", ctx.InvocationID()).
		Logger()

	return func(yield func(*session.Event, error) bool) {
		if ctx.Ended() {
			return
		}

		if n.run.State != Running {
			l.Debug().Str("termination", n.run.State.String()).Msg("negotiation over, stopping loop")
			ctx.EndInvocation()
			return
		}

		speaker, reason := n.selectSpeaker(ctx)
		l.Info().
			Str("speaker", speaker).
			Str("selection_reason", reason).
			Msg("selector picked speaker")

		if err := ctx.Session().State().Set(stateNextSpeaker, speaker); err != nil {
			yield(nil, fmt.Errorf("set next_speaker in session: %w", err))
			return
		}
	}
}

// selectSpeaker asks the backend to chair the conversation. Any failure
// or unusable answer falls back to round-robin, so selection can never
// sink a negotiation.
func (n *Negotiation) selectSpeaker(ctx context.Context) (speaker, reason string) {
	reply, err := n.gen.Generate(ctx, backend.Request{
		Instructions: n.selectorInstructions(),
		Input:        n.run.Transcript() + "\n\nWho speaks next?",
	})
	if err != nil {
		return nextRoundRobin(n.run, n.team), "round_robin_after_backend_failure"
	}
	if picked := parseSpeaker(reply, n.team); picked != "" {
		return picked, "model_choice"
	}
	return nextRoundRobin(n.run, n.team), "round_robin_unrecognized_answer"
}

func (n *Negotiation) newSpeakerAgent() (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        "Speaker",
		Description: "Voices the selected role for one turn.",
		Run:         n.runSpeaker,
	})
}

func (n *Negotiation) runSpeaker(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
	l := n.logger.With().
		Str("agent_name", ctx.Agent().Name()).
		Str("invocation_id", ctx.InvocationID()).
		Logger()

	return func(yield func(*session.Event, error) bool) {
		if ctx.Ended() {
			return
		}

		speakerVal, err := ctx.Session().State().Get(stateNextSpeaker)
		if err != nil {
			yield(nil, fmt.Errorf("get next_speaker from session: %w", err))
			return
		}
		speaker, ok := speakerVal.(string)
		if !ok || speaker == "" {
			return
		}

		turn, err := n.stage.Invoke(ctx, speaker, n.run, n.data)
		if err != nil {
			yield(nil, err)
			return
		}
		if n.onTurn != nil {
			n.onTurn(turn)
		}

		l.Debug().
			Str("speaker", speaker).
			Int("ordinal", turn.Ordinal).
			Msg("speaker turn recorded")

		if n.data.DoneMarker != "" && strings.Contains(turn.Text, n.data.DoneMarker) {
			n.run.CompleteBySignal()
		}
		if n.run.State != Running {
			ctx.EndInvocation()
		}

		// Clear the speaker so the selector picks fresh next time.
		_ = ctx.Session().State().Set(stateNextSpeaker, "")
	}
}

func (n *Negotiation) selectorInstructions() string {
	var b strings.Builder
	b.WriteString("You chair a resume writing workshop. Read the conversation and decide who speaks next.\n")
	b.WriteString("Candidates:\n")
	for _, name := range n.team {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(roles.Get(name).Description())
		b.WriteString("\n")
	}
	b.WriteString("Answer with exactly one candidate name and nothing else.\n")
	return b.String()
}

// parseSpeaker extracts a team name from the selector's answer. Exact
// matches win; otherwise the first team name mentioned anywhere in the
// answer is taken, in team order.
func parseSpeaker(reply string, team []string) string {
	cleaned := strings.ToLower(strings.TrimSpace(reply))
	for _, name := range team {
		if cleaned == name {
			return name
		}
	}
	for _, name := range team {
		if strings.Contains(cleaned, name) {
			return name
		}
	}
	return ""
}

// nextRoundRobin picks the team member after the last one who spoke.
// A fresh run starts with the first team member.
func nextRoundRobin(run *Run, team []string) string {
	last := ""
	for i := len(run.Turns) - 1; i >= 0; i-- {
		for _, name := range team {
			if run.Turns[i].Speaker == name {
				last = name
				break
			}
		}
		if last != "" {
			break
		}
	}
	if last == "" {
		return team[0]
	}
	for i, name := range team {
		if name == last {
			return team[(i+1)%len(team)]
		}
	}
	return team[0]
}
