package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PriceRange is a whole-dollar estimate parsed out of assistant text.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Message is a single conversation entry. Conversations are held by the
// client and replayed on every turn.
type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
}
