package model

import (
	"github.com/cloudwego/eino/schema"
)

// Route is the classifier's decision about which stages a query runs through.
type Route string

const (
	RouteUnset    Route = ""
	RouteResearch Route = "research"
	RouteDirect   Route = "direct"
	RouteClarify  Route = "clarify"
)

// Provenance identifies which source produced an evidence document.
type Provenance string

const (
	ProvenanceRAG       Provenance = "rag"
	ProvenanceWeb       Provenance = "web"
	ProvenanceWikipedia Provenance = "wikipedia"
	ProvenanceArxiv     Provenance = "arxiv"
	ProvenanceWeather   Provenance = "weather"
	ProvenanceNews      Provenance = "news"
	ProvenanceStock     Provenance = "stock"
	ProvenanceScrape    Provenance = "scrape"
)

// Document is one piece of evidence gathered during research.
type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	SourceURL  string     `json:"source_url,omitempty"`
	Provenance Provenance `json:"provenance"`
	Score      float64    `json:"score"`
}

// Source is a citation entry, index-aligned with the numbered references in
// the assembled context block and the final answer.
type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Entity is a named entity extracted from the fused context.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Sentiment is the overall tone of the fused context.
type Sentiment struct {
	Overall    string  `json:"overall"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is the default used whenever extraction is skipped or fails.
func NeutralSentiment() Sentiment {
	return Sentiment{Overall: "neutral", Confidence: 0.5}
}

// TraceEntry records one stage invocation. Entries are append-only; stage
// specific fields stay zero for stages that do not use them.
type TraceEntry struct {
	Agent          string `json:"agent"`
	Action         string `json:"action"`
	Decision       Route  `json:"decision,omitempty"`
	Reason         string `json:"reason,omitempty"`
	DocumentsFound int    `json:"documents_found,omitempty"`
	EntitiesFound  int    `json:"entities_found,omitempty"`
	Sentiment      string `json:"sentiment,omitempty"`
	OutputLength   int    `json:"output_length,omitempty"`
	OriginalLength int    `json:"original_length,omitempty"`
	ImprovedLength int    `json:"improved_length,omitempty"`
	ResponseLength int    `json:"response_length,omitempty"`
	LatencyMS      int64  `json:"latency_ms"`
}

// State is the single record threaded through every pipeline stage.
// Stages never mutate it directly; they return a Delta and the orchestrator
// applies it before invoking the next stage.
type State struct {
	Query    string
	ThreadID string
	UserID   string

	// Messages holds the conversation history, oldest first, with the
	// current query already appended as the last user message.
	Messages []*schema.Message

	RouteDecision         Route
	NeedsClarification    bool
	ClarificationQuestion string

	RetrievedDocuments []Document
	Context            string

	Entities  []Entity
	Sentiment *Sentiment
	KeyFacts  []string

	SynthesizedResponse string
	FinalResponse       string
	Sources             []Source

	AgentTrace     []TraceEntry
	TotalLatencyMS int64
	Error          string
}

// NewState seeds a State from prior history plus the new query. The query is
// appended to the history as the latest user message.
func NewState(query, threadID, userID string, history []*schema.Message) *State {
	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(query))

	return &State{
		Query:    query,
		ThreadID: threadID,
		UserID:   userID,
		Messages: msgs,
	}
}

// Delta is a partial update returned by a stage. Nil pointer fields and nil
// slices mean "unchanged"; Trace entries are appended, never replaced.
type Delta struct {
	RouteDecision         *Route
	NeedsClarification    *bool
	ClarificationQuestion *string

	RetrievedDocuments []Document
	Context            *string

	Entities  []Entity
	Sentiment *Sentiment
	KeyFacts  []string

	SynthesizedResponse *string
	FinalResponse       *string
	Sources             []Source

	Trace          []TraceEntry
	TotalLatencyMS *int64
	Error          *string
}

// Apply merges a stage delta into the state. The route decision is write-once:
// a delta can set it only while it is still unset.
func (s *State) Apply(d *Delta) {
	if d == nil {
		return
	}
	if d.RouteDecision != nil && s.RouteDecision == RouteUnset {
		s.RouteDecision = *d.RouteDecision
	}
	if d.NeedsClarification != nil {
		s.NeedsClarification = *d.NeedsClarification
	}
	if d.ClarificationQuestion != nil {
		s.ClarificationQuestion = *d.ClarificationQuestion
	}
	if d.RetrievedDocuments != nil {
		s.RetrievedDocuments = d.RetrievedDocuments
	}
	if d.Context != nil {
		s.Context = *d.Context
	}
	if d.Entities != nil {
		s.Entities = d.Entities
	}
	if d.Sentiment != nil {
		s.Sentiment = d.Sentiment
	}
	if d.KeyFacts != nil {
		s.KeyFacts = d.KeyFacts
	}
	if d.SynthesizedResponse != nil {
		s.SynthesizedResponse = *d.SynthesizedResponse
	}
	if d.FinalResponse != nil {
		s.FinalResponse = *d.FinalResponse
	}
	if d.Sources != nil {
		s.Sources = d.Sources
	}
	s.AgentTrace = append(s.AgentTrace, d.Trace...)
	if d.TotalLatencyMS != nil {
		s.TotalLatencyMS = *d.TotalLatencyMS
	}
	if d.Error != nil {
		s.Error = *d.Error
	}
}

// Helpers to build delta pointer fields without one-off variables.

func RoutePtr(r Route) *Route     { return &r }
func BoolPtr(b bool) *bool       { return &b }
func StringPtr(v string) *string { return &v }
func Int64Ptr(v int64) *int64    { return &v }
