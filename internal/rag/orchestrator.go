package rag

import (
	"context"
	"fmt"
	"strings"

	"doclens/internal/llm"
	"doclens/internal/models"
	"doclens/internal/retrieval"
	"doclens/pkg/logger"
)

// State tracks a single generation request through its fixed progression:
// Pending -> ContextAssembled -> ModelCalled -> Succeeded | Failed.
type State string

const (
	StatePending          State = "PENDING"
	StateContextAssembled State = "CONTEXT_ASSEMBLED"
	StateModelCalled      State = "MODEL_CALLED"
	StateSucceeded        State = "SUCCEEDED"
	StateFailed           State = "FAILED"
)

// Orchestrator composes retrieved snippets into a bounded context window and
// drives the generative model. It never retries internally: a failed model
// call surfaces as a recoverable *models.GenerationError and retry policy
// belongs to the caller (the same assembled context gives an idempotent
// retry).
type Orchestrator struct {
	llm      llm.LLM
	engine   *retrieval.Engine
	counter  tokenCounter
	budget   int
	topK     int
	log      *logger.Logger
}

// NewOrchestrator creates an orchestrator. contextTokens bounds the context
// block assembled per request; topK is how many snippets Answer retrieves.
func NewOrchestrator(model llm.LLM, engine *retrieval.Engine, contextTokens, topK int, log *logger.Logger) *Orchestrator {
	if contextTokens <= 0 {
		contextTokens = 3000
	}
	if topK <= 0 {
		topK = 5
	}
	return &Orchestrator{
		llm:     model,
		engine:  engine,
		counter: newTokenCounter(),
		budget:  contextTokens,
		topK:    topK,
		log:     log,
	}
}

// generation carries the per-request state machine.
type generation struct {
	stage string
	state State
}

func (o *Orchestrator) to(g *generation, s State) {
	g.state = s
	o.log.WithPayload(map[string]interface{}{"stage": g.stage, "state": string(s)}).Debug("Generation state")
}

// Answer retrieves the top-k snippets for the query, assembles them
// score-first into a token-bounded context block, and issues one model call.
// Returns the answer plus the snippets actually cited in the context.
func (o *Orchestrator) Answer(ctx context.Context, query string, documentIDs ...string) (string, []models.Snippet, error) {
	g := &generation{stage: "answer", state: StatePending}

	snippets, err := o.engine.Search(ctx, query, o.topK, documentIDs...)
	if err != nil {
		o.to(g, StateFailed)
		return "", nil, &models.GenerationError{Stage: g.stage, Err: err}
	}

	contextBlock, cited := o.assembleContext(snippets)
	o.to(g, StateContextAssembled)

	prompt := answerPrompt(query, contextBlock)
	o.to(g, StateModelCalled)
	answer, err := o.llm.Generate(ctx, prompt)
	if err != nil {
		o.to(g, StateFailed)
		return "", nil, &models.GenerationError{Stage: g.stage, Err: err}
	}
	o.to(g, StateSucceeded)

	o.log.WithPayload(map[string]interface{}{"cited": len(cited)}).Info("Generated answer")
	return strings.TrimSpace(answer), cited, nil
}

// assembleContext packs snippets score-first into the token budget and
// returns the context block plus the snippets that made it in.
func (o *Orchestrator) assembleContext(snippets []models.Snippet) (string, []models.Snippet) {
	var sb strings.Builder
	var used []models.Snippet
	remaining := o.budget

	for i, sn := range snippets {
		block := fmt.Sprintf("\n[Section %d from %s - Page %d]\nTitle: %s\nContent: %s\n",
			i+1, sn.Section.DocumentID, sn.Section.Page, sn.Section.Title, sn.Section.Text)
		cost := o.counter.Count(block)
		if cost > remaining && len(used) > 0 {
			break
		}
		sb.WriteString(block)
		used = append(used, sn)
		remaining -= cost
	}
	return sb.String(), used
}

func answerPrompt(query, contextBlock string) string {
	return fmt.Sprintf(`You are a helpful AI assistant that answers questions about documents in a conversational, friendly tone.

User's question: %q

Based on the following relevant sections from the user's documents, provide a brief, conversational answer (2-3 sentences maximum). Be direct and helpful, as if you're speaking to them:
%s
Important guidelines:
- Keep your response conversational and brief (like you're speaking out loud)
- Base your answer ONLY on the provided document content
- If the documents don't contain enough information to answer the question, say so politely
- Don't mention "according to the documents" - just answer naturally

Answer:`, query, contextBlock)
}
