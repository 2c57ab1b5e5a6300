package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// contextWindow is how many prior messages the context-aware prompt sees.
const contextWindow = 4

// Router classifies the query into research, direct or clarify. Rule hits
// short-circuit the model call; otherwise the fast model decides, with
// research as the fallback when the model fails or answers off-script.
type Router struct {
	gen llm.Generator
	cfg model.RouterModelConfig
}

func NewRouter(gen llm.Generator, cfg model.RouterModelConfig) *Router {
	return &Router{gen: gen, cfg: cfg}
}

func (r *Router) Name() string { return "router" }

func (r *Router) Run(ctx context.Context, s *model.State) *model.Delta {
	start := time.Now()

	history := s.Messages
	if len(history) > 0 {
		// The current query is already the last message.
		history = history[:len(history)-1]
	}

	if route, reason, ok := EvaluateRouteRules(s.Query, history); ok {
		d := &model.Delta{
			RouteDecision:      model.RoutePtr(route),
			NeedsClarification: model.BoolPtr(route == model.RouteClarify),
		}
		if route == model.RouteClarify {
			d.ClarificationQuestion = model.StringPtr(r.clarify(ctx, s.Query))
		}
		d.Trace = []model.TraceEntry{{
			Agent:     "router",
			Action:    "classified",
			Decision:  route,
			Reason:    reason,
			LatencyMS: time.Since(start).Milliseconds(),
		}}
		return d
	}

	route := r.classify(ctx, s.Query, history)

	d := &model.Delta{
		RouteDecision:      model.RoutePtr(route),
		NeedsClarification: model.BoolPtr(route == model.RouteClarify),
	}
	if route == model.RouteClarify {
		d.ClarificationQuestion = model.StringPtr(r.clarify(ctx, s.Query))
	}
	d.Trace = []model.TraceEntry{{
		Agent:     "router",
		Action:    "classified",
		Decision:  route,
		LatencyMS: time.Since(start).Milliseconds(),
	}}
	return d
}

func (r *Router) classify(ctx context.Context, query string, history []*schema.Message) model.Route {
	var prompt string
	if len(history) > 0 {
		prompt = renderContextAwareRouterPrompt(conversationContext(history), query)
	} else {
		prompt = renderRouterPrompt(query)
	}

	decision, err := r.gen.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, llm.GenerateOptions{
		Fast:        true,
		Temperature: llm.Temp(r.cfg.Temperature),
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("router model call failed, defaulting to research")
		return model.RouteResearch
	}

	upper := strings.ToUpper(decision)
	switch {
	case strings.Contains(upper, "DIRECT"):
		return model.RouteDirect
	case strings.Contains(upper, "CLARIFY"):
		return model.RouteClarify
	default:
		return model.RouteResearch
	}
}

func (r *Router) clarify(ctx context.Context, query string) string {
	question, err := r.gen.Generate(ctx, []*schema.Message{
		schema.UserMessage(renderClarificationPrompt(query)),
	}, llm.GenerateOptions{Fast: true, MaxTokens: 100})
	if err != nil || strings.TrimSpace(question) == "" {
		return "Could you please clarify your question?"
	}
	return strings.TrimSpace(question)
}

// conversationContext renders the last few exchanges for the routing prompt,
// truncating long turns.
func conversationContext(messages []*schema.Message) string {
	recent := lastN(messages, contextWindow)
	parts := make([]string, 0, len(recent))
	for _, msg := range recent {
		role := "Assistant"
		if msg.Role == schema.User {
			role = "User"
		}
		content := msg.Content
		if c := clipRunes(content, 200); c != content {
			content = c + "..."
		}
		parts = append(parts, role+": "+content)
	}
	return strings.Join(parts, "\n")
}
