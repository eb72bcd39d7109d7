package domain

// ChatMessage is the provider-agnostic chat message shape sent to the LLM.
// ImageURLs, when set, are attached as image parts after the text content.
type ChatMessage struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"-"`
}

// CompletionRequest describes one call to the completion oracle.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature *float64
	MaxTokens   int
	JSONOutput  bool
}
