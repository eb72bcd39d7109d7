package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLeadInterest(t *testing.T) {
	tests := []struct {
		in   string
		want InterestLevel
		ok   bool
	}{
		{"interested", InterestInterested, true},
		{" Waiting ", InterestWaiting, true},
		{"thinking", InterestWaiting, true},
		{"not_interested", InterestNotInterested, true},
		{"maybe", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLeadInterest(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseProjectInterest(t *testing.T) {
	got, ok := ParseProjectInterest("waiting")
	require.True(t, ok)
	require.Equal(t, InterestThinking, got)

	got, ok = ParseProjectInterest("THINKING")
	require.True(t, ok)
	require.Equal(t, InterestThinking, got)

	_, ok = ParseProjectInterest("later")
	require.False(t, ok)
}

func TestParseRenovationType(t *testing.T) {
	for _, s := range []string{"kitchen", "basement", "bathroom", "garden", "roof", "other", " Kitchen "} {
		_, ok := ParseRenovationType(s)
		require.True(t, ok, s)
	}
	_, ok := ParseRenovationType("attic")
	require.False(t, ok)
}

func TestMessageJSON_OmitsMissingPriceRange(t *testing.T) {
	raw, err := json.Marshal(Message{Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"user","content":"hi"}`, string(raw))

	raw, err = json.Marshal(Message{Role: RoleAssistant, Content: "x", PriceRange: &PriceRange{Min: 1, Max: 2}})
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"assistant","content":"x","priceRange":{"min":1,"max":2}}`, string(raw))
}
