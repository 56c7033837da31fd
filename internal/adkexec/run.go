// Package adkexec drives ADK agents over an in-memory session service.
package adkexec

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	adkrunner "google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	appName = "starsmith"
	userID  = "pipeline"
)

// Run seeds the agent with one user message and drives it until its
// event stream drains. Negotiation agents exchange everything through
// session state and callbacks, so events are discarded here and only
// the error path surfaces.
func Run(ctx context.Context, a agent.Agent, seed *genai.Content) error {
	if a == nil {
		return fmt.Errorf("agent is required")
	}

	svc := session.InMemoryService()
	created, err := svc.Create(ctx, &session.CreateRequest{
		AppName: appName,
		UserID:  userID,
	})
	if err != nil {
		return fmt.Errorf("create adk session: %w", err)
	}

	r, err := adkrunner.New(adkrunner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: svc,
	})
	if err != nil {
		return fmt.Errorf("create adk runner: %w", err)
	}

	for _, runErr := range r.Run(ctx, userID, created.Session.ID(), seed, agent.RunConfig{}) {
		if runErr != nil {
			return runErr
		}
	}
	return nil
}
