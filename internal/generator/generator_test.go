package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/genscript/internal/gateway"
	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/types"
	"github.com/hyperengineering/genscript/internal/validation"
)

// mockGateway implements gateway.Generator for testing
type mockGateway struct {
	output     string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockGateway) Generate(ctx context.Context, prompt string) (*gateway.Response, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return &gateway.Response{OutputText: m.output, FinishReason: "STOP"}, nil
}

func (m *mockGateway) Backend() string { return "mock" }

// fakeStore keeps ideas in memory and can be told to fail.
type fakeStore struct {
	store.Store
	titles      []string
	saveErr     error
	recordErr   error
	saved       [][]types.Idea
	generations []types.Generation
}

func (f *fakeStore) SaveIdeas(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, ideas)
	res := &types.SaveResult{TotalProcessed: len(ideas)}
	seen := map[string]bool{}
	for _, t := range f.titles {
		seen[strings.ToLower(t)] = true
	}
	for _, idea := range ideas {
		k := strings.ToLower(idea.Title)
		if seen[k] {
			res.DuplicatesCount++
			continue
		}
		seen[k] = true
		res.Saved = append(res.Saved, idea)
	}
	return res, nil
}

func (f *fakeStore) RecordGeneration(ctx context.Context, g types.Generation) (*types.Generation, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	f.generations = append(f.generations, g)
	return &g, nil
}

const twoIdeas = `Sure! [{"category":"Data","title":"Foo","description":"one"},{"category":"Data","title":"Bar","description":"two"}]`

func newTestService(gw gateway.Generator, s store.Store) *Service {
	svc := New(gw, s, Config{DefaultCount: 5, MaxCount: 20})
	svc.newID = func() string { return "01HZZZZZZZZZZZZZZZZZZZZZZZ" }
	return svc
}

func TestGenerate_ParsesGatewayOutput(t *testing.T) {
	gw := &mockGateway{output: twoIdeas}
	svc := newTestService(gw, nil)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "soil health", Count: 2})

	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Contains(t, gw.lastPrompt, "soil health")
	assert.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ", res.RequestID)
	assert.Equal(t, types.ModeResearch, res.Mode)
	assert.Equal(t, "json", res.Strategy)
	require.Len(t, res.Ideas, 2)
	assert.Equal(t, "Foo", res.Ideas[0].Title)
	assert.False(t, res.Persisted)
	assert.False(t, res.Empty())
}

func TestGenerate_AppliesDefaultCount(t *testing.T) {
	gw := &mockGateway{output: twoIdeas}
	svc := newTestService(gw, nil)

	_, err := svc.Generate(context.Background(), Request{Mode: "business", Topic: "retail"})

	require.NoError(t, err)
	want, err := prompt.Build(types.ModeBusiness, "retail", 5)
	require.NoError(t, err)
	assert.Equal(t, want, gw.lastPrompt)
}

func TestGenerate_AcceptsModeAlias(t *testing.T) {
	svc := newTestService(&mockGateway{output: twoIdeas}, nil)

	res, err := svc.Generate(context.Background(), Request{Mode: "python", Topic: "automation", Count: 3})

	require.NoError(t, err)
	assert.Equal(t, types.ModeTechnicalScript, res.Mode)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	gw := &mockGateway{output: twoIdeas}
	svc := newTestService(gw, nil)

	_, err := svc.Generate(context.Background(), Request{Mode: "poetry", Topic: " ", Count: 99})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
	assert.Zero(t, gw.calls, "gateway must not be called for invalid requests")
}

func TestGenerate_GatewayErrorReturnedVerbatim(t *testing.T) {
	gwErr := &gateway.GatewayError{StatusCode: 503, Body: "overloaded"}
	st := &fakeStore{}
	svc := newTestService(&mockGateway{err: gwErr}, st)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 1, Save: true})

	assert.Nil(t, res)
	var got *gateway.GatewayError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 503, got.StatusCode)
	assert.Empty(t, st.saved)
}

func TestGenerate_EmptyOutputIsDistinct(t *testing.T) {
	svc := newTestService(&mockGateway{err: gateway.ErrEmptyOutput}, nil)

	_, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 1})

	assert.ErrorIs(t, err, gateway.ErrEmptyOutput)
}

func TestGenerate_ZeroIdeasIsNotAnError(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(&mockGateway{output: "no usable content"}, st)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 1})

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Ideas)
	assert.Equal(t, "legacy", res.Strategy)
	require.Len(t, st.generations, 1)
	assert.Zero(t, st.generations[0].ParsedCount)
}

func TestGenerate_SavesAndReportsDuplicates(t *testing.T) {
	st := &fakeStore{titles: []string{"foo"}}
	svc := newTestService(&mockGateway{output: twoIdeas}, st)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 2, Save: true})

	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Nil(t, res.PersistError)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, "Bar", res.Saved[0].Title)
	assert.Equal(t, 1, res.DuplicatesCount)
	assert.Len(t, res.Ideas, 2, "all parsed ideas are returned")

	require.Len(t, st.generations, 1)
	g := st.generations[0]
	assert.Equal(t, res.RequestID, g.ID)
	assert.Equal(t, 2, g.ParsedCount)
	assert.Equal(t, 1, g.SavedCount)
	assert.Equal(t, 1, g.DuplicatesCount)
}

func TestGenerate_PersistFailureIsSwallowed(t *testing.T) {
	st := &fakeStore{saveErr: errors.New("disk full")}
	svc := newTestService(&mockGateway{output: twoIdeas}, st)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 2, Save: true})

	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.EqualError(t, res.PersistError, "disk full")
	assert.Len(t, res.Ideas, 2)
}

func TestGenerate_HistoryFailureIsSwallowed(t *testing.T) {
	st := &fakeStore{recordErr: errors.New("locked")}
	svc := newTestService(&mockGateway{output: twoIdeas}, st)

	res, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 2})

	require.NoError(t, err)
	assert.Len(t, res.Ideas, 2)
}

func TestGenerate_NoSaveWithoutFlag(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(&mockGateway{output: twoIdeas}, st)

	_, err := svc.Generate(context.Background(), Request{Mode: "research", Topic: "x", Count: 2})

	require.NoError(t, err)
	assert.Empty(t, st.saved)
}

func TestSave_WithoutStore(t *testing.T) {
	svc := newTestService(&mockGateway{}, nil)

	_, err := svc.Save(context.Background(), []types.Idea{{Title: "T"}})

	assert.Error(t, err)
}

func TestNew_ClampsConfig(t *testing.T) {
	svc := New(&mockGateway{}, nil, Config{DefaultCount: 100})

	assert.Equal(t, DefaultMaxCount, svc.MaxCount())
	assert.Equal(t, DefaultMaxCount, svc.cfg.DefaultCount)
	assert.Equal(t, "mock", svc.Backend())
}

func TestResult_Response(t *testing.T) {
	r := &Result{RequestID: "id", Mode: types.ModeBusiness, Strategy: "legacy", Persisted: true}

	resp := r.Response()

	assert.Equal(t, "id", resp.RequestID)
	assert.Equal(t, "business", resp.Mode)
	assert.Equal(t, "legacy", resp.Strategy)
	assert.True(t, resp.Persisted)
}
