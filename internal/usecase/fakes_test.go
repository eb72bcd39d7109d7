package usecase

import (
	"context"
	"errors"
	"sync"

	"renovation-quote/internal/domain"
)

// fakeLLM answers through respond and records every request. Safe for
// concurrent use.
type fakeLLM struct {
	mu       sync.Mutex
	respond  func(req domain.CompletionRequest) (string, error)
	requests []domain.CompletionRequest
}

func (f *fakeLLM) Chat(_ context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond == nil {
		return "", errors.New("no llm response configured")
	}
	return f.respond(req)
}

func (f *fakeLLM) calls() []domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CompletionRequest(nil), f.requests...)
}

// visionCalls and textCalls split recorded requests by whether they carry an
// image.
func (f *fakeLLM) visionCalls() int {
	n := 0
	for _, r := range f.calls() {
		if isVision(r) {
			n++
		}
	}
	return n
}

func (f *fakeLLM) textCalls() []domain.CompletionRequest {
	var out []domain.CompletionRequest
	for _, r := range f.calls() {
		if !isVision(r) {
			out = append(out, r)
		}
	}
	return out
}

func isVision(r domain.CompletionRequest) bool {
	for _, m := range r.Messages {
		if len(m.ImageURLs) > 0 {
			return true
		}
	}
	return false
}

func replyWith(text string) func(domain.CompletionRequest) (string, error) {
	return func(domain.CompletionRequest) (string, error) { return text, nil }
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls map[domain.ImageType]int
}

func (f *fakeAnalyzer) AnalyzeAll(_ context.Context, images []string, role domain.ImageType) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[domain.ImageType]int{}
	}
	f.calls[role] += len(images)
	out := make([]string, len(images))
	for i := range images {
		out[i] = string(role) + " analysis"
	}
	return out
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "upstream status" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func hasCode(err error, code ErrorCode) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Code == code
}
