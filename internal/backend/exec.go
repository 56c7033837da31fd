package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalagman/ainvoke"
)

// ExecConfig configures a CLI agent backend. Type selects a known agent
// command (claude, codex, gemini, opencode) or "exec" with an explicit
// Cmd. When RunDir is empty each call runs in a throwaway temp dir;
// when set, per-call dirs are created under it and kept as artifacts.
type ExecConfig struct {
	Type   string
	Cmd    []string
	Model  string
	UseTTY bool
	RunDir string
	Stdout io.Writer
	Stderr io.Writer
}

type cliSpec struct {
	defaultSubcommand string
	extraFlags        []string
}

var cliSpecs = map[string]cliSpec{
	"codex": {
		defaultSubcommand: "exec",
		extraFlags:        []string{"--full-auto", "--skip-git-repo-check"},
	},
	"opencode": {
		defaultSubcommand: "run",
	},
	"gemini": {
		extraFlags: []string{"--output-format", "text", "--approval-mode", "yolo"},
	},
	"claude": {
		extraFlags: []string{"--output-format", "text", "--print", "--dangerously-skip-permissions"},
	},
}

// Exec is a Generator that shells out to a CLI agent through ainvoke.
type Exec struct {
	cfg    ExecConfig
	cmd    []string
	runner ainvoke.Runner
}

// NewExec constructs a CLI agent backend for the given config.
func NewExec(cfg ExecConfig) (*Exec, error) {
	spec, isKnownType := cliSpecs[cfg.Type]
	var cmd []string

	if cfg.Type == "exec" {
		if len(cfg.Cmd) == 0 {
			return nil, fmt.Errorf("exec backend requires cmd")
		}
		cmd = cfg.Cmd
	} else if isKnownType {
		cmd = prepareCmd(cfg.Type, spec, cfg.Model)
	} else {
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}

	ar, err := ainvoke.NewRunner(ainvoke.AgentConfig{
		Cmd:    cmd,
		UseTTY: cfg.UseTTY,
	})
	if err != nil {
		return nil, err
	}

	return &Exec{cfg: cfg, cmd: cmd, runner: ar}, nil
}

func prepareCmd(baseCmd string, spec cliSpec, model string) []string {
	out := []string{baseCmd}

	if spec.defaultSubcommand != "" {
		out = append(out, spec.defaultSubcommand)
	}

	if model != "" {
		out = append(out, "--model", model)
	}

	out = append(out, spec.extraFlags...)

	return out
}

// Command returns the resolved agent command line.
func (e *Exec) Command() []string {
	return append([]string(nil), e.cmd...)
}

// Generate runs the agent once. Instructions become the system prompt;
// the rendered conversation is passed as the invocation input.
func (e *Exec) Generate(ctx context.Context, req Request) (string, error) {
	runDir, cleanup, err := e.callDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	inv := ainvoke.Invocation{
		RunDir:       runDir,
		SystemPrompt: req.Instructions,
		Input:        execInput{Conversation: req.Input},
		InputSchema:  execInputSchema,
		OutputSchema: execOutputSchema,
	}

	// ainvoke handles writing input.json, validating schemas, and running the command.
	outBytes, _, exitCode, err := e.runner.Run(ctx, inv,
		ainvoke.WithStdout(writerOrDiscard(e.cfg.Stdout)),
		ainvoke.WithStderr(writerOrDiscard(e.cfg.Stderr)),
	)
	if err != nil {
		return "", fmt.Errorf("run cli agent: %w", err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("cli agent exited with code %d", exitCode)
	}

	var out execOutput
	if err := json.Unmarshal(outBytes, &out); err != nil {
		return "", fmt.Errorf("parse cli agent output: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("cli agent produced no text")
	}

	return text, nil
}

func (e *Exec) callDir() (string, func(), error) {
	if e.cfg.RunDir != "" {
		dir, err := os.MkdirTemp(e.cfg.RunDir, "call-")
		if err != nil {
			return "", nil, fmt.Errorf("create call dir: %w", err)
		}
		return dir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "starsmith-call-")
	if err != nil {
		return "", nil, fmt.Errorf("create call dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

type execInput struct {
	Conversation string `json:"conversation"`
}

type execOutput struct {
	Text string `json:"text"`
}

const execInputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "conversation": { "type": "string" }
  },
  "required": ["conversation"]
}`

const execOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "text": { "type": "string", "minLength": 1 }
  },
  "required": ["text"]
}`
