package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tradebot/internal/domain"
)

// --- fakes ---

type openGate bool

func (g openGate) Open(time.Time) bool { return bool(g) }

type fakeStore struct {
	set       *domain.ProcessedSet
	loadErr   error
	saveErr   error
	saveCalls int
	saved     []string
}

func newFakeStore(ids ...string) *fakeStore {
	set := domain.NewProcessedSet()
	for _, id := range ids {
		set.Add(id)
	}
	return &fakeStore{set: set}
}

func (s *fakeStore) Load() (*domain.ProcessedSet, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.set, nil
}

func (s *fakeStore) Save(set *domain.ProcessedSet) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.saved = set.IDs()
	return nil
}

type fakeSource struct {
	tl  *domain.Timeline
	err error
}

func (s *fakeSource) Latest(context.Context) (*domain.Timeline, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tl, nil
}

// fakeProvider answers classify prompts with label and rewrite prompts with
// rewritten, failing whichever is configured to fail.
type fakeProvider struct {
	label       string
	rewritten   string
	classifyErr error
	rewriteErr  error
	calls       []string
}

func (p *fakeProvider) Name() string                  { return "fake" }
func (p *fakeProvider) Healthy(context.Context) error { return nil }

func (p *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "classifier") {
		p.calls = append(p.calls, "classify")
		if p.classifyErr != nil {
			return "", p.classifyErr
		}
		return p.label, nil
	}
	p.calls = append(p.calls, "rewrite")
	if p.rewriteErr != nil {
		return "", p.rewriteErr
	}
	return p.rewritten, nil
}

type fakePublisher struct {
	err   error
	calls []string
}

func (p *fakePublisher) Publish(_ context.Context, text string) error {
	p.calls = append(p.calls, text)
	return p.err
}

func newTestPipeline(gate openGate, store *fakeStore, source *fakeSource, prov *fakeProvider, pub *fakePublisher) *Pipeline {
	prompts := DefaultPrompts()
	return New(Config{
		Gate:       gate,
		Store:      store,
		Source:     source,
		Classifier: NewClassifier(prov, prompts.Classify, nil),
		Rewriter:   NewRewriter(prov, prompts.Rewrite, nil),
		Publisher:  pub,
	})
}

func timelineOf(posts ...domain.Post) *domain.Timeline {
	return &domain.Timeline{Posts: posts, Media: map[string]domain.MediaItem{}}
}

// --- runs ---

func TestRun_GateClosed(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{err: errors.New("must not be called")}
	p := newTestPipeline(openGate(false), store, source, &fakeProvider{}, &fakePublisher{})

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.GateClosed {
		t.Fatal("expected gate-closed report")
	}
	if store.saveCalls != 0 {
		t.Fatal("gate-closed run must not touch persisted state")
	}
}

func TestRun_FetchFailureLeavesStateUntouched(t *testing.T) {
	store := newFakeStore("1")
	source := &fakeSource{err: errors.New("api: 500")}
	p := newTestPipeline(openGate(true), store, source, &fakeProvider{}, &fakePublisher{})

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for fetch failure")
	}
	if store.saveCalls != 0 {
		t.Fatal("fetch failure must not touch persisted state")
	}
}

func TestRun_LoadFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("corrupt state file")
	source := &fakeSource{tl: timelineOf()}
	p := newTestPipeline(openGate(true), store, source, &fakeProvider{}, &fakePublisher{})

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for state load failure")
	}
}

func TestRun_DedupeRoundTrip(t *testing.T) {
	store := newFakeStore("1", "2")
	source := &fakeSource{tl: timelineOf(
		domain.Post{ID: "1", Text: "old"},
		domain.Post{ID: "2", Text: "old"},
		domain.Post{ID: "3", Text: "gm everyone"},
	)}
	prov := &fakeProvider{label: "not trade"}
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pub.calls) != 0 {
		t.Fatalf("expected no publish calls, got %v", pub.calls)
	}
	if report.AlreadyProcessed != 2 || report.SkippedNotTrade != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	want := []string{"1", "2", "3"}
	if fmt.Sprint(store.saved) != fmt.Sprint(want) {
		t.Fatalf("persisted set = %v, want %v", store.saved, want)
	}
}

func TestRun_FullSuccess(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{tl: timelineOf(
		domain.Post{ID: "10", Text: "just grabbed some AAPL calls lol"},
	)}
	prov := &fakeProvider{label: "trade", rewritten: "Bought AAPL 150C exp 6/20 at 1.20"}
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pub.calls) != 1 || pub.calls[0] != "Bought AAPL 150C exp 6/20 at 1.20" {
		t.Fatalf("unexpected publish calls: %v", pub.calls)
	}
	if report.Published != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(store.saved) != 1 || store.saved[0] != "10" {
		t.Fatalf("post not marked processed: %v", store.saved)
	}
}

func TestRun_RewriteFailureSkipsPublish(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{tl: timelineOf(domain.Post{ID: "7", Text: "sold calls"})}
	prov := &fakeProvider{label: "trade", rewriteErr: errors.New("model error")}
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pub.calls) != 0 {
		t.Fatal("publish must not be called when rewrite fails")
	}
	if report.RewriteFailed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(store.saved) != 1 || store.saved[0] != "7" {
		t.Fatalf("post not marked processed despite rewrite failure: %v", store.saved)
	}
}

func TestRun_PublishFailureStillMarksProcessed(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{tl: timelineOf(domain.Post{ID: "8", Text: "bought puts"})}
	prov := &fakeProvider{label: "trade", rewritten: "Bought SPY 500P at 2.10"}
	pub := &fakePublisher{err: errors.New("403 forbidden")}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.PublishFailed != 1 || report.Published != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(store.saved) != 1 || store.saved[0] != "8" {
		t.Fatalf("post not marked processed despite publish failure: %v", store.saved)
	}
}

func TestRun_PhotoSkipPrecedesClassification(t *testing.T) {
	store := newFakeStore()
	tl := &domain.Timeline{
		Posts: []domain.Post{{
			ID:          "9",
			Text:        "Bought TSLA 900C at 3.50", // trade-looking text
			Attachments: &domain.Attachments{MediaKeys: []string{"3_1"}},
		}},
		Media: map[string]domain.MediaItem{
			"3_1": {MediaKey: "3_1", Type: "photo"},
		},
	}
	prov := &fakeProvider{label: "trade", rewritten: "should never be used"}
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, &fakeSource{tl: tl}, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(prov.calls) != 0 {
		t.Fatalf("photo post must not reach the provider, got calls %v", prov.calls)
	}
	if len(pub.calls) != 0 {
		t.Fatal("photo post must never be published")
	}
	if report.SkippedPhoto != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(store.saved) != 1 || store.saved[0] != "9" {
		t.Fatalf("photo post not marked processed: %v", store.saved)
	}
}

func TestRun_SecondRunPublishesNothing(t *testing.T) {
	source := &fakeSource{tl: timelineOf(domain.Post{ID: "11", Text: "bought calls"})}
	prov := &fakeProvider{label: "trade", rewritten: "Bought NVDA 120C at 0.80"}
	store := newFakeStore()
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstSaved := fmt.Sprint(store.saved)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(pub.calls) != 1 {
		t.Fatalf("second run must not publish again, got %d calls", len(pub.calls))
	}
	if fmt.Sprint(store.saved) != firstSaved {
		t.Fatalf("persisted set changed across idempotent runs: %v vs %v", store.saved, firstSaved)
	}
}

func TestRun_OneBadPostDoesNotBlockBatch(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{tl: timelineOf(
		domain.Post{ID: "1", Text: "gm"},
		domain.Post{ID: "2", Text: "bought calls"},
	)}
	// Classification errors for everything: fail-closed means both posts
	// resolve as not-trade and the run still completes.
	prov := &fakeProvider{classifyErr: errors.New("quota exceeded")}
	pub := &fakePublisher{}
	p := newTestPipeline(openGate(true), store, source, prov, pub)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SkippedNotTrade != 2 || len(pub.calls) != 0 {
		t.Fatalf("fail-closed classification violated: %+v", report)
	}
	if len(store.saved) != 2 {
		t.Fatalf("all posts should be marked processed: %v", store.saved)
	}
}
