package domain

import "strings"

type InterestLevel string

const (
	InterestInterested    InterestLevel = "interested"
	InterestWaiting       InterestLevel = "waiting"
	InterestThinking      InterestLevel = "thinking"
	InterestNotInterested InterestLevel = "not_interested"
)

// ParseLeadInterest normalizes a lead decision. "thinking" is accepted as an
// alias of "waiting".
func ParseLeadInterest(s string) (InterestLevel, bool) {
	switch InterestLevel(strings.ToLower(strings.TrimSpace(s))) {
	case InterestInterested:
		return InterestInterested, true
	case InterestWaiting, InterestThinking:
		return InterestWaiting, true
	case InterestNotInterested:
		return InterestNotInterested, true
	}
	return "", false
}

// ParseProjectInterest normalizes a project decision. "waiting" is accepted as
// an alias of "thinking".
func ParseProjectInterest(s string) (InterestLevel, bool) {
	switch InterestLevel(strings.ToLower(strings.TrimSpace(s))) {
	case InterestInterested:
		return InterestInterested, true
	case InterestWaiting, InterestThinking:
		return InterestThinking, true
	case InterestNotInterested:
		return InterestNotInterested, true
	}
	return "", false
}

// Feedback is what a visitor tells us after declining.
type Feedback struct {
	Reasons  []string `json:"reasons,omitempty"`
	Comments string   `json:"comments,omitempty"`
}

// Lead is a recorded visitor decision with the transcript that led to it.
type Lead struct {
	ConversationID string        `json:"conversationId"`
	InterestLevel  InterestLevel `json:"interestLevel"`
	Timestamp      string        `json:"timestamp"`
	ChatHistory    []Message     `json:"chatHistory"`
	Feedback       *Feedback     `json:"feedback,omitempty"`
}
