package usecase

import (
	"fmt"
	"strings"

	"renovation-quote/internal/domain"
)

const (
	noCurrentImages = "No current state images provided"
	noDesiredImages = "No desired state images provided"
	defaultTimeline = "flexible"

	priceFormatRule = "Whenever you give a price range, end your reply with a line exactly in the form " +
		"\"Estimated Price Range: $X,XXX to $X,XXX\"."
)

func buildInitialPrompt(current, desired []string, description, timeline string) string {
	timeline = strings.TrimSpace(timeline)
	if timeline == "" {
		timeline = defaultTimeline
	}
	return strings.Join([]string{
		"You are a renovation expert AI assistant having a natural conversation with a homeowner. The user has provided:",
		"",
		"Current State Analysis:",
		joinAnalyses(current, noCurrentImages),
		"",
		"Desired State Analysis:",
		joinAnalyses(desired, noDesiredImages),
		"",
		fmt.Sprintf("User's Description: %s", strings.TrimSpace(description)),
		fmt.Sprintf("Timeline: %s", timeline),
		"",
		"Your role is to:",
		"1) Start with a friendly greeting and acknowledge their renovation project.",
		"2) Ask specific questions to gather the information needed for an accurate estimate.",
		"3) After 4-5 exchanges, provide a rough price range based on what you have learned.",
		"4) Keep refining the estimate or discuss additional options.",
		"5) Be conversational, and understanding of typos or informal language.",
		"",
		"Key points to discuss:",
		"- Specific materials and finishes",
		"- Room dimensions and layout changes",
		"- Structural modifications",
		"- Quality level of materials (budget, mid-range, luxury)",
		"- Special requirements or preferences",
		"- Local labor costs and availability",
		"",
		"Ask one question at a time and be clear about what might affect the final price.",
		priceFormatRule,
	}, "\n")
}

func joinAnalyses(analyses []string, empty string) string {
	if len(analyses) == 0 {
		return empty
	}
	return strings.Join(analyses, "\n\n")
}

func continuationSystemPrompt() string {
	return strings.Join([]string{
		"You are a renovation expert AI assistant continuing a conversation about a renovation project.",
		"",
		"Rules:",
		"1) Be concise and ask at most one question per turn.",
		"2) Keep gathering details that refine the cost estimate.",
		"3) Mention factors that might change the final price and any useful upgrades.",
		"4) Keep the tone friendly and professional.",
		"5) Always end your reply with \"Estimated Price Range: $X,XXX to $X,XXX\" using your current best estimate.",
		"6) Only when the conversation naturally concludes, remind the user they can click " +
			"\"Interested\" to proceed, \"Waiting\" to think about it, or \"Not Interested\" to stop.",
	}, "\n")
}

func buildContinuationMessages(history []domain.Message, message string) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(history)+2)
	out = append(out, domain.ChatMessage{Role: domain.RoleSystem, Content: continuationSystemPrompt()})
	for _, m := range history {
		out = append(out, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return append(out, domain.ChatMessage{Role: domain.RoleUser, Content: message})
}

const estimateSystemPrompt = "You are a renovation expert with experience in cost estimation for residential " +
	"and commercial projects, renovation timeline planning, identifying potential challenges, " +
	"and asking follow-up questions that clarify project scope."

func buildEstimatePrompt(description string, current, desired []string) string {
	var b strings.Builder
	b.WriteString("As a renovation expert, analyze this project:\n\n")
	fmt.Fprintf(&b, "Description: %s\n\n", strings.TrimSpace(description))
	b.WriteString("Current State Analysis:\n")
	writeNumbered(&b, current)
	b.WriteString("\nDesired State Analysis:\n")
	writeNumbered(&b, desired)
	b.WriteString("\nBased on the description and image analysis, respond with JSON only, in this exact shape:\n")
	b.WriteString(`{"estimate": "cost estimate with breakdown", "timeline": "realistic project timeline", "questions": ["follow-up question", "..."]}`)
	return b.String()
}

func writeNumbered(b *strings.Builder, analyses []string) {
	for i, a := range analyses {
		fmt.Fprintf(b, "- Image %d: %s\n", i+1, a)
	}
}
