package pipeline

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	errx "github.com/intellistream/server/internal/core/error"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	"github.com/intellistream/server/internal/agent/retriever"
	logx "github.com/intellistream/server/pkg/logger"
)

// stage is the engine's execution state. The machine is acyclic and visits
// each stage at most once.
type stage int

const (
	stageClassify stage = iota
	stageFuse
	stageExtract
	stageSynthesize
	stageCritique
	stageFinalize
	stageDone
)

// Observer receives stage lifecycle callbacks during a run. Callbacks fire
// on the engine goroutine; implementations must not block for long.
type Observer interface {
	StageStarted(agent string)
	StageCompleted(agent string, s *model.State)
}

// Result is the blocking-call answer envelope.
type Result struct {
	Response   string             `json:"response"`
	ThreadID   string             `json:"thread_id"`
	Sources    []model.Source     `json:"sources"`
	AgentTrace []model.TraceEntry `json:"agent_trace"`
	LatencyMS  int64              `json:"latency_ms"`
}

// Engine runs the six-stage answer pipeline: classify, fuse, extract,
// synthesize, critique, finalize. Direct and clarify routes jump straight
// from classify to finalize.
type Engine struct {
	router      *Router
	research    *Research
	analysis    *Analysis
	synthesizer *Synthesizer
	reflection  *Reflection
	responder   *Responder

	checkpoints model.CheckpointRepository
	conv        model.ConversationConfig
}

// EngineConfig wires the engine's collaborators. Checkpoints may be nil, in
// which case runs are stateless.
type EngineConfig struct {
	Generator    llm.Generator
	ResearchDeps ResearchDeps
	Retrieval    model.RetrievalConfig
	RouterModel  model.RouterModelConfig
	Checkpoints  model.CheckpointRepository
	Conversation model.ConversationConfig
}

func NewEngine(cfg EngineConfig) *Engine {
	deps := cfg.ResearchDeps
	if deps.Store != nil {
		ttl, err := time.ParseDuration(cfg.Retrieval.CacheTTL)
		if err != nil {
			logx.Warn().Err(err).Str("ttl", cfg.Retrieval.CacheTTL).Msg("invalid retrieval cache ttl, using default")
			ttl = 0
		}
		deps.Store = retriever.NewCachedStore(deps.Store, ttl)
	}
	return &Engine{
		router:      NewRouter(cfg.Generator, cfg.RouterModel),
		research:    NewResearch(deps, cfg.Retrieval),
		analysis:    NewAnalysis(cfg.Generator),
		synthesizer: NewSynthesizer(cfg.Generator),
		reflection:  NewReflection(cfg.Generator),
		responder:   NewResponder(cfg.Generator),
		checkpoints: cfg.Checkpoints,
		conv:        cfg.Conversation,
	}
}

// Invoke runs the full pipeline and blocks until the final answer is ready.
// An empty threadID starts a fresh thread.
func (e *Engine) Invoke(ctx context.Context, query, threadID, userID string) (*Result, error) {
	s, err := e.run(ctx, query, threadID, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		Response:   s.FinalResponse,
		ThreadID:   s.ThreadID,
		Sources:    s.Sources,
		AgentTrace: s.AgentTrace,
		LatencyMS:  s.TotalLatencyMS,
	}, nil
}

// run drives the state machine. A non-nil history overrides the checkpoint
// store; the observer, when present, sees every stage boundary.
func (e *Engine) run(ctx context.Context, query, threadID, userID string, history []*schema.Message, obs Observer) (*model.State, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	if history == nil {
		history = e.loadHistory(ctx, threadID)
	}

	s := model.NewState(query, threadID, userID, history)

	for st := stageClassify; st != stageDone; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch st {
		case stageClassify:
			e.apply(ctx, s, obs, e.router)
			if s.RouteDecision == model.RouteResearch {
				st = stageFuse
			} else {
				st = stageFinalize
			}
		case stageFuse:
			e.apply(ctx, s, obs, e.research)
			st = stageExtract
		case stageExtract:
			e.apply(ctx, s, obs, e.analysis)
			st = stageSynthesize
		case stageSynthesize:
			e.apply(ctx, s, obs, e.synthesizer)
			st = stageCritique
		case stageCritique:
			e.apply(ctx, s, obs, e.reflection)
			st = stageFinalize
		case stageFinalize:
			if obs != nil {
				obs.StageStarted(e.responder.Name())
			}
			d, err := e.responder.Run(ctx, s)
			if err != nil {
				return nil, err
			}
			s.Apply(d)
			if obs != nil {
				obs.StageCompleted(e.responder.Name(), s)
			}
			st = stageDone
		}
	}

	e.persist(ctx, s)
	return s, nil
}

// stageRunner is any stage that cannot fail the run: it produces a delta for
// the orchestrator to merge.
type stageRunner interface {
	Name() string
	Run(ctx context.Context, s *model.State) *model.Delta
}

// apply notifies the observer that the stage entered, then runs it and
// merges its delta. The started event must precede the stage work so a
// streaming client sees progress while the stage is still executing.
func (e *Engine) apply(ctx context.Context, s *model.State, obs Observer, st stageRunner) {
	if obs != nil {
		obs.StageStarted(st.Name())
	}
	d := st.Run(ctx, s)
	s.Apply(d)
	if obs != nil {
		obs.StageCompleted(st.Name(), s)
	}
}

// loadHistory pulls the thread's prior turns, capped to the configured
// window. Missing threads and store errors both mean a fresh conversation.
func (e *Engine) loadHistory(ctx context.Context, threadID string) []*schema.Message {
	if e.checkpoints == nil {
		return nil
	}
	hist, err := e.checkpoints.LoadHistory(ctx, threadID)
	if err != nil {
		if !errx.IsNotFound(err) {
			logx.Warn().Err(err).Str("thread_id", threadID).Msg("history load failed, starting fresh")
		}
		return nil
	}
	messages := hist.Messages
	if max := e.conv.HistoryMaxTurns; max > 0 && len(messages) > max {
		messages = messages[len(messages)-max:]
	}
	return messages
}

// persist records the user query and the final answer so follow-up queries
// can resume the thread.
func (e *Engine) persist(ctx context.Context, s *model.State) {
	if e.checkpoints == nil {
		return
	}
	if err := e.checkpoints.AppendMessage(ctx, s.ThreadID, schema.UserMessage(s.Query)); err != nil {
		logx.Warn().Err(err).Str("thread_id", s.ThreadID).Msg("user message persist failed")
		return
	}
	if err := e.checkpoints.AppendMessage(ctx, s.ThreadID, schema.AssistantMessage(s.FinalResponse, nil)); err != nil {
		logx.Warn().Err(err).Str("thread_id", s.ThreadID).Msg("assistant message persist failed")
	}
}
