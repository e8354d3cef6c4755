package contracts

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"lexiq-backend/internal/datauri"
	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/pdfcheck"
	"lexiq-backend/internal/pdfcheck/pdftest"
)

type stubResponse struct {
	raw string
	err error
}

// stubClient answers by prompt name and records every request.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	requests  []llm.Request
}

func newStubClient(responses map[string]stubResponse) *stubClient {
	return &stubClient{responses: responses}
}

func (s *stubClient) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	resp, ok := s.responses[req.Name]
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, llm.ErrEmptyResponse
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return json.RawMessage(resp.raw), nil
}

func (s *stubClient) calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Name == name {
			n++
		}
	}
	return n
}

func (s *stubClient) lastRequest(name string) (llm.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Name == name {
			return s.requests[i], true
		}
	}
	return llm.Request{}, false
}

func testPrompts(t *testing.T) llm.Prompts {
	t.Helper()
	prompts, err := llm.DefaultPrompts()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	return prompts
}

func testPDFURI(pages int) string {
	return datauri.FromBytes(pdfcheck.MimePDF, pdftest.Minimal(pages)).String()
}

const (
	twoClausesJSON = `{"language":"English","clauses":[{"type":"Termination","text":"A"},{"type":"Payment","text":"B"}]}`
	oneRiskJSON    = `{"riskAssessment":[{"clause":"A","riskCategory":"Liability Concerns","explanation":"Unlimited liability.","suggestion":"Cap liability at fees paid.","severity":"high"}]}`
)

func mustParse(t *testing.T, raw string) datauri.DataURI {
	t.Helper()
	doc, err := datauri.Parse(raw)
	if err != nil {
		t.Fatalf("parse data uri: %v", err)
	}
	return doc
}
