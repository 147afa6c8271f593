package classifier

import (
	"context"
	"sync"

	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
)

// scriptedReply is one canned answer of fakeModel.
type scriptedReply struct {
	content string
	err     error
}

// fakeModel replays scripted replies in order, repeating the last one.
type fakeModel struct {
	mu       sync.Mutex
	replies  []scriptedReply
	requests []provider.GenerateRequest
}

func newFakeModel(replies ...scriptedReply) *fakeModel {
	return &fakeModel{replies: replies}
}

func (m *fakeModel) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := min(len(m.requests), len(m.replies)-1)
	m.requests = append(m.requests, req)

	reply := m.replies[idx]
	if reply.err != nil {
		return nil, reply.err
	}
	return &types.GenerateResponse{Content: reply.content, FinishReason: types.FinishReasonStop}, nil
}

func (m *fakeModel) ID() string {
	return "fake:model"
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

type countingObserver struct {
	failures   map[ErrorKind]int
	classified int
	abandoned  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{failures: map[ErrorKind]int{}}
}

func (o *countingObserver) AttemptFailed(kind ErrorKind) { o.failures[kind]++ }
func (o *countingObserver) BatchClassified(labels int)   { o.classified += labels }
func (o *countingObserver) BatchAbandoned()              { o.abandoned++ }
