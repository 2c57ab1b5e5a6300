package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/model"
)

// Event stream event types.
const (
	EventAgentStatus = "agent_status"
	EventToken       = "token"
	EventResponse    = "response"
	EventDone        = "done"
	EventError       = "error"
)

// Event is a single streamed update, shaped for direct SSE serialization.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type agentStatusData struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

type tokenData struct {
	Content string `json:"content"`
}

type responseData struct {
	Content string         `json:"content"`
	Sources []model.Source `json:"sources"`
}

type doneData struct {
	ThreadID string `json:"thread_id"`
}

type errorData struct {
	Message string `json:"message"`
}

// streamObserver forwards stage boundaries onto the event channel while the
// engine runs.
type streamObserver struct {
	ctx context.Context
	out chan<- Event
}

func (o *streamObserver) StageStarted(agent string) {
	o.send(Event{Type: EventAgentStatus, Data: agentStatusData{Agent: agent, Status: "started"}})
}

func (o *streamObserver) StageCompleted(agent string, _ *model.State) {
	o.send(Event{Type: EventAgentStatus, Data: agentStatusData{Agent: agent, Status: "completed"}})
}

func (o *streamObserver) send(ev Event) bool {
	select {
	case o.out <- ev:
		return true
	case <-o.ctx.Done():
		return false
	}
}

// Stream runs the pipeline and emits progress events: agent_status per stage
// boundary, then the final answer replayed as growing token prefixes, one
// response event carrying content and sources, and a terminal done event.
// Failures surface as a single error event. The channel closes when the run
// finishes or ctx is cancelled; an explicit history overrides the checkpoint
// store.
func (e *Engine) Stream(ctx context.Context, query, threadID, userID string, history []*schema.Message, cfg model.StreamConfig) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		obs := &streamObserver{ctx: ctx, out: out}
		s, err := e.run(ctx, query, threadID, userID, history, obs)
		if err != nil {
			obs.send(Event{Type: EventError, Data: errorData{Message: err.Error()}})
			return
		}

		if s.FinalResponse != "" {
			if !replayTokens(ctx, obs, s.FinalResponse, cfg.TokenDelayMS) {
				return
			}
			if !obs.send(Event{Type: EventResponse, Data: responseData{Content: s.FinalResponse, Sources: s.Sources}}) {
				return
			}
		}

		obs.send(Event{Type: EventDone, Data: doneData{ThreadID: s.ThreadID}})
	}()

	return out
}

// replayTokens emits the answer as cumulative whitespace-delimited prefixes
// with a fixed pacing delay between words.
func replayTokens(ctx context.Context, obs *streamObserver, response string, delayMS int) bool {
	delay := time.Duration(delayMS) * time.Millisecond
	words := strings.Split(response, " ")

	var b strings.Builder
	for i, word := range words {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(word)

		if !obs.send(Event{Type: EventToken, Data: tokenData{Content: b.String()}}) {
			return false
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}
