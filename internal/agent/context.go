package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/prompts"
)

// ContextProvider supplies one section of the conversation briefing.
// Providers return "" when they have nothing to contribute.
type ContextProvider interface {
	GetContext(ctx context.Context, userID string) (string, error)
}

// Briefing assembles the per-user context injected into the system
// prompt: profile, current plan, recent workouts, and trainer memory,
// in that order. A provider error drops its section and the briefing
// continues; a partial briefing beats no conversation.
type Briefing struct {
	logger   *slog.Logger
	Profile  ContextProvider
	Plan     ContextProvider
	Workouts ContextProvider
	Memory   ContextProvider
}

// NewBriefing creates a briefing over the four standard providers. Any
// provider may be nil, which skips its section.
func NewBriefing(logger *slog.Logger, profile, plan, workouts, memory ContextProvider) *Briefing {
	return &Briefing{
		logger:   logger,
		Profile:  profile,
		Plan:     plan,
		Workouts: workouts,
		Memory:   memory,
	}
}

// Build returns the full briefing text for a user. When the profile or
// plan section is empty, onboarding instructions are appended so the
// model knows to run the interview before coaching.
func (b *Briefing) Build(ctx context.Context, userID string) string {
	profile := b.section(ctx, userID, "profile", b.Profile)
	plan := b.section(ctx, userID, "plan", b.Plan)
	workouts := b.section(ctx, userID, "workouts", b.Workouts)
	memory := b.section(ctx, userID, "memory", b.Memory)

	var parts []string
	for _, s := range []string{profile, plan, workouts, memory} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	hasProfile := profile != ""
	hasPlan := plan != ""
	if !hasProfile || !hasPlan {
		onboarding := prompts.OnboardingHeader
		if !hasProfile {
			onboarding += "\n" + prompts.ProfileOnboarding()
		}
		// The plan interview needs a saved profile to work from.
		if !hasPlan && hasProfile {
			onboarding += "\n" + prompts.PlanOnboarding()
		}
		parts = append(parts, onboarding)
	}

	return strings.Join(parts, "\n\n")
}

func (b *Briefing) section(ctx context.Context, userID, name string, p ContextProvider) string {
	if p == nil {
		return ""
	}
	content, err := p.GetContext(ctx, userID)
	if err != nil {
		b.logger.Warn("briefing section failed", "section", name, "user", userID, "error", err)
		return ""
	}
	return content
}
