package pipeline

import (
	"fmt"
	"strings"

	"github.com/intellistream/server/internal/agent/model"
)

const routerPrompt = `You are a query router for an intelligence system. Analyze the user's query and determine the best path to answer it.

Categories:
1. RESEARCH - The query requires searching documents, retrieving context, or finding specific information
2. DIRECT - The query can be answered directly without searching (greetings, simple factual questions, clarifications)
3. CLARIFY - The query is too vague or ambiguous to answer properly

User Query: %s

Respond with ONLY one word: RESEARCH, DIRECT, or CLARIFY`

const contextAwareRouterPrompt = `You are a query router for an intelligence system. Analyze the user's query IN CONTEXT of the conversation and determine the best path.

Recent Conversation:
%s

Current Query: %s

Categories:
1. RESEARCH - The query requires searching documents, real-time data (weather/news/stocks), or finding specific information. Also use this if the query is a follow-up to a previous research topic (e.g., asking about a different location after asking about weather).
2. DIRECT - The query can be answered directly without searching (greetings, simple factual questions, general clarifications)
3. CLARIFY - The query is too vague or ambiguous to answer properly

Respond with ONLY one word: RESEARCH, DIRECT, or CLARIFY`

const clarificationPrompt = `The following query is ambiguous and needs clarification.
Generate a short, helpful question to clarify what the user wants.

Query: %s

Clarification question:`

const analysisPrompt = `Analyze the following context and extract key information.

Context:
%s

User Query: %s

Extract:
1. Key entities (people, companies, products, etc.)
2. Overall sentiment (positive, negative, neutral, mixed)
3. 3-5 key facts relevant to the query`

const analysisSchema = `{
  "entities": [
    {"name": "...", "type": "person|company|product|location|other"}
  ],
  "sentiment": {
    "overall": "positive|negative|neutral|mixed",
    "confidence": 0.0-1.0
  },
  "key_facts": [
    "fact 1",
    "fact 2"
  ]
}`

const synthesisPrompt = `You are a concise, accurate analyst. Answer based ONLY on the provided context.

User Query: %s

Retrieved Context:
%s

Key Facts: %s

RULES:
1. BE CONCISE - Match response length to query complexity. Simple questions get 1-2 sentence answers.
2. ONLY cite [1], [2] etc. if the specific information comes DIRECTLY from that numbered source.
3. If a fact is NOT in any source, do NOT include it - say you don't have that information.
4. Do NOT invent, assume, or hallucinate any information.
5. If sources contradict, note the discrepancy.

Response:`

const reflectionPrompt = `Review and improve this response. Be strict about accuracy and conciseness.

Query: %s

Draft Response: %s

Available Sources:
%s

STRICT RULES:
1. REMOVE any citation [N] if that specific information is NOT in source [N]
2. REMOVE any fact not found in the sources - replace with "I don't have that information"
3. SHORTEN the response - match length to query complexity. Simple queries need 1-2 sentences max.
4. REMOVE unnecessary filler, preambles like "Based on the sources..." or conclusions like "In summary..."
5. Keep ONLY directly relevant information

Return ONLY the improved response (no commentary):`

func renderRouterPrompt(query string) string {
	return fmt.Sprintf(routerPrompt, query)
}

func renderContextAwareRouterPrompt(conversation, query string) string {
	return fmt.Sprintf(contextAwareRouterPrompt, conversation, query)
}

func renderClarificationPrompt(query string) string {
	return fmt.Sprintf(clarificationPrompt, query)
}

func renderAnalysisPrompt(context, query string) string {
	return fmt.Sprintf(analysisPrompt, context, query)
}

func renderSynthesisPrompt(query, context string, keyFacts []string) string {
	facts := "None"
	if len(keyFacts) > 0 {
		lines := make([]string, len(keyFacts))
		for i, f := range keyFacts {
			lines[i] = "- " + f
		}
		facts = "\n" + strings.Join(lines, "\n")
	}
	if context == "" {
		context = "No context available"
	}
	return fmt.Sprintf(synthesisPrompt, query, context, facts)
}

func renderReflectionPrompt(query, draft string, sources []model.Source) string {
	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		snippet := clipRunes(s.Snippet, 100)
		lines = append(lines, fmt.Sprintf("%s %s: %s", s.ID, s.Title, snippet))
	}
	rendered := "No sources available"
	if len(lines) > 0 {
		rendered = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(reflectionPrompt, query, draft, rendered)
}
