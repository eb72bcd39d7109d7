package domain

import (
	"strings"
	"time"
)

type RenovationType string

const (
	RenovationKitchen  RenovationType = "kitchen"
	RenovationBasement RenovationType = "basement"
	RenovationBathroom RenovationType = "bathroom"
	RenovationGarden   RenovationType = "garden"
	RenovationRoof     RenovationType = "roof"
	RenovationOther    RenovationType = "other"
)

func ParseRenovationType(s string) (RenovationType, bool) {
	switch t := RenovationType(strings.ToLower(strings.TrimSpace(s))); t {
	case RenovationKitchen, RenovationBasement, RenovationBathroom, RenovationGarden, RenovationRoof, RenovationOther:
		return t, true
	}
	return "", false
}

type ImageType string

const (
	ImageCurrent ImageType = "current"
	ImageDesired ImageType = "desired"
)

// RenovationProject is immutable once inserted.
type RenovationProject struct {
	ID                string         `json:"id"`
	RenovationType    RenovationType `json:"renovation_type"`
	InitialPrompt     string         `json:"initial_prompt"`
	MinPrice          *int           `json:"min_price,omitempty"`
	MaxPrice          *int           `json:"max_price,omitempty"`
	InterestLevel     InterestLevel  `json:"interest_level"`
	EstimatedTimeline *string        `json:"estimated_timeline,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ProjectImage references an already-inserted RenovationProject.
type ProjectImage struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ImageURL  string    `json:"image_url"`
	ImageType ImageType `json:"image_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is raw image content received from a visitor.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
