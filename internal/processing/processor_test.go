package processing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// genai's auth dependency starts an opencensus worker from init.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type outcomeLog struct {
	mu   sync.Mutex
	list []Outcome
}

func (l *outcomeLog) record(o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.list = append(l.list, o)
}

func (l *outcomeLog) all() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Outcome(nil), l.list...)
}

func TestProcessorNormalize(t *testing.T) {
	var log outcomeLog
	proc := NewProcessor(NewPipeline(Deps{}), 4, log.record)
	proc.StartWorkers(2)
	defer proc.Close()

	out, err := proc.Normalize(context.Background(), NormalizeIn{MessageID: "a1", Text: "Need a taxi tonight"})
	require.NoError(t, err)
	assert.Equal(t, "a1", out.MessageID)
	assert.Equal(t, CategoryUrgent, out.Category)

	got := log.all()
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].MessageID)
	assert.Equal(t, CategoryUrgent, got[0].Category)
	assert.Equal(t, []string{"categorize", "contact", "entities"}, got[0].Fallbacks)
	assert.NoError(t, got[0].Err)
}

func TestProcessorBatchKeepsOrder(t *testing.T) {
	var log outcomeLog
	proc := NewProcessor(NewPipeline(Deps{}), 2, log.record)
	proc.StartWorkers(3)
	defer proc.Close()

	ins := make([]NormalizeIn, 12)
	for i := range ins {
		ins[i] = NormalizeIn{MessageID: fmt.Sprintf("b%d", i), Text: "hello"}
	}
	ins[5].Text = "I was arrested"

	outs, err := proc.NormalizeBatch(context.Background(), ins)
	require.NoError(t, err)
	require.Len(t, outs, len(ins))
	for i, out := range outs {
		assert.Equal(t, ins[i].MessageID, out.MessageID)
	}
	assert.Equal(t, CategoryHighRisk, outs[5].Category)
	assert.Equal(t, CategoryBase, outs[6].Category)
	assert.Len(t, log.all(), len(ins))
}

func TestProcessorReportsFailures(t *testing.T) {
	var log outcomeLog
	proc := NewProcessor(NewPipeline(Deps{LLM: &fakeLLM{panics: true}}), 1, log.record)
	proc.StartWorkers(1)
	defer proc.Close()

	_, err := proc.Normalize(context.Background(), NormalizeIn{MessageID: "c1", Text: "x"})
	require.Error(t, err)

	got := log.all()
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)

	_, err = proc.NormalizeBatch(context.Background(), []NormalizeIn{{MessageID: "c2", Text: "x"}})
	assert.Error(t, err)
}

func TestProcessorCancelledContext(t *testing.T) {
	proc := NewProcessor(NewPipeline(Deps{}), 1, nil)
	proc.StartWorkers(1)
	defer proc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := proc.Normalize(ctx, NormalizeIn{MessageID: "d1", Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessorClosed(t *testing.T) {
	proc := NewProcessor(NewPipeline(Deps{}), 1, nil)
	proc.StartWorkers(1)
	proc.Close()
	proc.Close()

	_, err := proc.Normalize(context.Background(), NormalizeIn{MessageID: "e1", Text: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}
