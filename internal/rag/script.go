package rag

import (
	"context"
	"fmt"
	"strings"

	"doclens/internal/models"
)

// ScriptInput is everything a two-voice script is built from.
type ScriptInput struct {
	Title    string
	Summary  string
	Insights models.InsightBundle
}

// Script turns a document summary and its insights into a two-speaker
// conversation. It asks the model first; when the reply yields no usable
// turns the deterministic template below takes over, so script generation
// never fails outright for a non-empty summary.
func (o *Orchestrator) Script(ctx context.Context, in ScriptInput) (models.Script, error) {
	if strings.TrimSpace(in.Summary) == "" {
		return models.Script{}, &models.GenerationError{
			Stage: "script",
			Err:   fmt.Errorf("empty summary"),
		}
	}

	reply, err := o.llm.Generate(ctx, scriptPrompt(in))
	if err == nil {
		if script := parseScriptReply(reply); len(script.Turns) >= 2 {
			return script, nil
		}
		o.log.Warn("Script reply had no parseable turns, using template script")
	} else {
		o.log.WithError(err).Warn("Script generation failed, using template script")
	}
	return templateScript(in), nil
}

// parseScriptReply extracts alternating HOST:/GUEST: lines. Lines with
// neither prefix continue the previous speaker's turn.
func parseScriptReply(reply string) models.Script {
	var script models.Script
	for _, line := range strings.Split(stripCodeFences(reply), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "HOST:"):
			appendTurn(&script, models.RoleHost, strings.TrimPrefix(line, "HOST:"))
		case strings.HasPrefix(line, "GUEST:"):
			appendTurn(&script, models.RoleGuest, strings.TrimPrefix(line, "GUEST:"))
		default:
			if n := len(script.Turns); n > 0 {
				script.Turns[n-1].Text += " " + line
			}
		}
	}
	return script
}

func appendTurn(script *models.Script, role models.SpeakerRole, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	script.Turns = append(script.Turns, models.ScriptTurn{Role: role, Text: text})
}

// templateScript produces the fixed-order fallback conversation: intro, main
// summary, related material, then one exchange per non-empty insight
// category, then outro. Deterministic for a given input.
func templateScript(in ScriptInput) models.Script {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "this document"
	}

	var script models.Script
	add := func(role models.SpeakerRole, text string) { appendTurn(&script, role, text) }

	add(models.RoleHost, fmt.Sprintf("Welcome to the show. Today we're digging into %s.", title))
	add(models.RoleGuest, "Thanks for having me. There's a lot to unpack here.")
	add(models.RoleHost, "Let's start with the big picture. What is this document really about?")
	add(models.RoleGuest, in.Summary)

	if items := in.Insights.CrossDocumentConnections; len(items) > 0 {
		add(models.RoleHost, "How does this relate to the rest of the material?")
		add(models.RoleGuest, strings.Join(items, " "))
	}
	if items := in.Insights.Contradictions; len(items) > 0 {
		add(models.RoleHost, "Were there any points of tension or contradiction?")
		add(models.RoleGuest, strings.Join(items, " "))
	}
	if items := in.Insights.AlternateApplications; len(items) > 0 {
		add(models.RoleHost, "Are there other ways to look at this?")
		add(models.RoleGuest, strings.Join(items, " "))
	}
	if items := in.Insights.ContextualNotes; len(items) > 0 {
		add(models.RoleHost, "What context should listeners keep in mind?")
		add(models.RoleGuest, strings.Join(items, " "))
	}

	add(models.RoleHost, "That's a great place to wrap up. Any final thought?")
	add(models.RoleGuest, fmt.Sprintf("Just that %s rewards a close read. Thanks for the conversation.", title))
	return script
}

func scriptPrompt(in ScriptInput) string {
	var extras strings.Builder
	writeCategory(&extras, "Contradictions found", in.Insights.Contradictions)
	writeCategory(&extras, "Alternate viewpoints", in.Insights.AlternateApplications)
	writeCategory(&extras, "Contextual notes", in.Insights.ContextualNotes)
	writeCategory(&extras, "Connections to other documents", in.Insights.CrossDocumentConnections)

	return fmt.Sprintf(`Write a short, engaging two-person podcast script discussing a document titled %q.

Document summary:
%s
%s
Rules:
- Exactly two speakers: a curious HOST and a knowledgeable GUEST.
- Every line starts with "HOST:" or "GUEST:" followed by what that speaker says.
- Open with a brief welcome, cover the summary, weave in the findings above, close with a short outro.
- Conversational spoken English, no markdown, no stage directions.
- Keep the whole script under 20 turns.`, in.Title, in.Summary, extras.String())
}

func writeCategory(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n" + label + ":\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}
