package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/metalagman/starsmith/internal/resume"
)

func mcpCmd() *cobra.Command {
	var backendName string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline operations as MCP tools over stdio",
		Long:  "Serve score, enhance and feedback as Model Context Protocol tools over stdio, so editor agents can drive the pipeline without a session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg, backendName)
			if err != nil {
				return err
			}
			server := newMCPServer(pipeline.NewCoordinator(gen, cfg.TurnBudget()))
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}

type scoreArgs struct {
	Example  string `json:"example" jsonschema:"the officer's raw work example text"`
	Position string `json:"position,omitempty" jsonschema:"the position the officer is applying for"`
}

type scoreToolResult struct {
	Scores      resume.ScoringResult `json:"scores"`
	Extraction  string               `json:"extraction"`
	MeetsTarget bool                 `json:"meets_target"`
}

type enhanceArgs struct {
	Example  string `json:"example" jsonschema:"the officer's raw work example text"`
	Position string `json:"position,omitempty" jsonschema:"the position the officer is applying for"`
}

type starPayload struct {
	Header    string `json:"header,omitempty" jsonschema:"year / rank / location header"`
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
	Category  string `json:"category,omitempty" jsonschema:"competency category: Vision, Results or Accountability"`
}

type feedbackArgs struct {
	Example  starPayload `json:"example" jsonschema:"the current STAR example"`
	Feedback []string    `json:"feedback" jsonschema:"officer feedback points to address"`
}

type draftToolResult struct {
	Example    resume.STARExample `json:"example"`
	Markdown   string             `json:"markdown"`
	Extraction string             `json:"extraction"`
	Complete   bool               `json:"complete"`
	Skipped    bool               `json:"skipped,omitempty"`
}

func newMCPServer(coord *pipeline.Coordinator) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "starsmith", Version: "0.1.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_example",
		Description: "Score a police work example on the context, complexity and initiative dimensions (1-7 scale, 4 meets the standard).",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scoreArgs) (*mcp.CallToolResult, scoreToolResult, error) {
		if strings.TrimSpace(args.Example) == "" {
			return nil, scoreToolResult{}, fmt.Errorf("example is required")
		}
		out, err := coord.ScoreExample(ctx, args.Example, args.Position)
		if err != nil {
			return nil, scoreToolResult{}, err
		}
		return nil, scoreToolResult{
			Scores:      out.Result,
			Extraction:  out.Tier.String(),
			MeetsTarget: out.Result.MeetsTarget(),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enhance_example",
		Description: "Turn a police work example into a structured STAR draft through the writer and reviewer roles.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args enhanceArgs) (*mcp.CallToolResult, draftToolResult, error) {
		if strings.TrimSpace(args.Example) == "" {
			return nil, draftToolResult{}, fmt.Errorf("example is required")
		}
		out, err := coord.EnhanceExample(ctx, args.Example, args.Position, resume.ScoringResult{})
		if err != nil {
			return nil, draftToolResult{}, err
		}
		return nil, draftResult(out), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_feedback",
		Description: "Revise a STAR example to address officer feedback. Empty feedback returns the example unchanged without a model call.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args feedbackArgs) (*mcp.CallToolResult, draftToolResult, error) {
		example := resume.STARExample{
			Header:    args.Example.Header,
			Situation: args.Example.Situation,
			Task:      args.Example.Task,
			Action:    args.Example.Action,
			Result:    args.Example.Result,
			Category:  resume.Category(args.Example.Category),
		}
		out, err := coord.ApplyFeedback(ctx, example, args.Feedback)
		if err != nil {
			return nil, draftToolResult{}, err
		}
		return nil, draftResult(out), nil
	})

	return server
}

func draftResult(out pipeline.DraftOutcome) draftToolResult {
	return draftToolResult{
		Example:    out.Example,
		Markdown:   out.Example.Markdown(),
		Extraction: out.Tier.String(),
		Complete:   out.Example.Complete(),
		Skipped:    out.Skipped,
	}
}
