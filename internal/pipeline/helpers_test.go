// internal/pipeline/helpers_test.go
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"job-snatcher/internal/ingest"
	"job-snatcher/internal/jobs"
	"job-snatcher/internal/llm"
	"job-snatcher/internal/stages"
	"job-snatcher/internal/wol"
)

func f64(v float64) *float64 { return &v }

// memStore is an in-memory Store with per-id fault injection.
type memStore struct {
	mu      sync.Mutex
	recs    map[string]*jobs.Record
	assets  map[string]string
	getErr  map[string]error
	panicOn map[string]bool
}

func newMemStore(recs ...*jobs.Record) *memStore {
	s := &memStore{
		recs:    map[string]*jobs.Record{},
		assets:  map[string]string{jobs.AssetContactInfo: `{"name":"Ada"}`},
		getErr:  map[string]error{},
		panicOn: map[string]bool{},
	}
	for _, r := range recs {
		if r.Status == "" {
			r.Status = jobs.StatusDiscovered
		}
		s.recs[r.ID] = r
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (*jobs.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicOn[id] {
		panic("corrupt row " + id)
	}
	if err := s.getErr[id]; err != nil {
		return nil, err
	}
	r, ok := s.recs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) UpdateCombined(_ context.Context, id string, combined float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok || r.CosineScore == nil {
		return false, nil
	}
	r.CombinedScore = f64(combined)
	if r.Status == jobs.StatusDiscovered {
		r.Status = jobs.StatusMatched
	}
	return true, nil
}

func (s *memStore) SaveDraft(_ context.Context, id, cover string, cv *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok || r.Status.Terminal() || r.Status == jobs.StatusSubmitted {
		return false, nil
	}
	r.CoverLetterDraft = cover
	r.CVVariant = ""
	if cv != nil {
		r.CVVariant = *cv
	}
	r.Status = jobs.StatusDrafted
	return true, nil
}

func (s *memStore) ActiveAssets(context.Context) (map[string]string, error) {
	return s.assets, nil
}

func (s *memStore) record(id string) *jobs.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.recs[id]
	return &cp
}

func (s *memStore) setScores(id string, cosine, reasoning *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cosine != nil {
		s.recs[id].CosineScore = cosine
	}
	if reasoning != nil {
		s.recs[id].ReasoningScore = reasoning
	}
}

// fakeCaller answers stage calls with a function and records requests.
type fakeCaller struct {
	mu    sync.Mutex
	calls map[string][][]string
	fn    func(endpoint string, ids []string) (*stages.Response, error)
}

func newFakeCaller(fn func(endpoint string, ids []string) (*stages.Response, error)) *fakeCaller {
	return &fakeCaller{calls: map[string][][]string{}, fn: fn}
}

func (c *fakeCaller) Call(_ context.Context, endpoint string, ids []string) (*stages.Response, error) {
	c.mu.Lock()
	c.calls[endpoint] = append(c.calls[endpoint], append([]string(nil), ids...))
	c.mu.Unlock()
	return c.fn(endpoint, ids)
}

func (c *fakeCaller) requests(endpoint string) [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[endpoint]
}

// allWith answers every requested id with status.
func allWith(status string) func(string, []string) (*stages.Response, error) {
	return func(_ string, ids []string) (*stages.Response, error) {
		resp := &stages.Response{}
		for _, id := range ids {
			resp.Results = append(resp.Results, stages.Result{JobID: id, Status: status})
		}
		resp.Processed = len(ids)
		return resp, nil
	}
}

// scoringServices simulates the cosine, reasoning and generator services
// persisting into store.
func scoringServices(store *memStore, cosine, reasoning map[string]float64) *fakeCaller {
	return newFakeCaller(func(endpoint string, ids []string) (*stages.Response, error) {
		resp := &stages.Response{}
		for _, id := range ids {
			switch endpoint {
			case stages.EndpointMatch:
				v, ok := cosine[id]
				if !ok {
					continue
				}
				store.setScores(id, f64(v), nil)
				resp.Results = append(resp.Results, stages.Result{JobID: id, Status: stages.StatusProcessed})
			case stages.EndpointReason:
				v, ok := reasoning[id]
				if !ok {
					resp.Results = append(resp.Results, stages.Result{JobID: id, Status: stages.StatusFailed, Error: "ollama timeout"})
					continue
				}
				store.setScores(id, nil, f64(v))
				resp.Results = append(resp.Results, stages.Result{JobID: id, Status: stages.StatusProcessed})
			case stages.EndpointGenerate:
				_, _ = store.SaveDraft(context.Background(), id, "remote letter", nil)
				resp.Results = append(resp.Results, stages.Result{JobID: id, Status: stages.StatusDrafted})
			}
		}
		resp.Processed = len(resp.Results)
		resp.Failed = len(ids) - len(resp.Results)
		return resp, nil
	})
}

type fakeAvailability struct {
	online bool
	calls  int
}

func (a *fakeAvailability) EnsureOnline(context.Context, wol.Target) bool {
	a.calls++
	return a.online
}

// fakeAdmitter admits URLs into a memStore with sequential ids.
type fakeAdmitter struct {
	mu    sync.Mutex
	store *memStore
	seen  map[string]string
	fail  map[string]error
	next  int
}

func newFakeAdmitter(store *memStore) *fakeAdmitter {
	return &fakeAdmitter{store: store, seen: map[string]string{}, fail: map[string]error{}}
}

func (a *fakeAdmitter) Admit(_ context.Context, rawURL string) (*jobs.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.fail[rawURL]; err != nil {
		return nil, err
	}
	if id, ok := a.seen[rawURL]; ok {
		return nil, &ingest.DuplicateError{ExistingID: id}
	}
	a.next++
	id := fmt.Sprintf("job-%d", a.next)
	a.seen[rawURL] = id
	rec := &jobs.Record{ID: id, JobURL: rawURL, Title: "Engineer", Company: "Acme", Description: "Go services", Status: jobs.StatusDiscovered}
	a.store.mu.Lock()
	a.store.recs[id] = rec
	a.store.mu.Unlock()
	cp := *rec
	return &cp, nil
}

// scriptedGenerator returns canned completions keyed by call order.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (g *scriptedGenerator) Generate(context.Context, string, llm.Options) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", nil
}

func (g *scriptedGenerator) Backend() string { return "scripted" }
