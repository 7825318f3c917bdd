// Package pipeline orchestrates one batch run: gate check, state load,
// fetch, per-post filter/classify/rewrite/publish, state save.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradebot/internal/domain"
	"tradebot/internal/metrics"
)

// Gate decides whether a run may process posts at the given time.
type Gate interface {
	Open(now time.Time) bool
}

// Pipeline wires the collaborators of one run. It owns the processed set
// for the duration of Run; nothing else mutates it.
type Pipeline struct {
	gate       Gate
	store      domain.ProcessedStore
	source     domain.TimelineSource
	classifier *Classifier
	rewriter   *Rewriter
	publisher  domain.Publisher
	notifier   domain.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

type Config struct {
	Gate       Gate
	Store      domain.ProcessedStore
	Source     domain.TimelineSource
	Classifier *Classifier
	Rewriter   *Rewriter
	Publisher  domain.Publisher
	Notifier   domain.Notifier // optional
	Logger     *slog.Logger
	Now        func() time.Time // optional, for tests
}

func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		gate:       cfg.Gate,
		store:      cfg.Store,
		source:     cfg.Source,
		classifier: cfg.Classifier,
		rewriter:   cfg.Rewriter,
		publisher:  cfg.Publisher,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// Report summarizes how each post in the batch was resolved.
type Report struct {
	GateClosed       bool
	Fetched          int
	AlreadyProcessed int
	SkippedPhoto     int
	SkippedNotTrade  int
	RewriteFailed    int
	Published        int
	PublishFailed    int
}

// Run executes one pass. The gate-closed and fetch-failure paths leave the
// persisted state untouched. Every other post outcome ends with the post
// marked processed, so one bad post never blocks the batch and no post is
// attempted twice.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	metrics.RunsTotal.Inc()
	report := &Report{}

	if !p.gate.Open(p.now()) {
		p.logger.Info("market gate closed, skipping run")
		metrics.RunsGateClosed.Inc()
		report.GateClosed = true
		return report, nil
	}

	processed, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load processed state: %w", err)
	}
	p.logger.Info("loaded processed state", "ids", processed.Len())

	tl, err := p.source.Latest(ctx)
	if err != nil {
		metrics.FetchFailures.Inc()
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}
	report.Fetched = len(tl.Posts)

	for _, post := range tl.Posts {
		if processed.Has(post.ID) {
			report.AlreadyProcessed++
			continue
		}
		metrics.PostsSeen.Inc()
		p.processOne(ctx, post, tl.Media, processed, report)
	}

	if err := p.store.Save(processed); err != nil {
		return report, fmt.Errorf("save processed state: %w", err)
	}
	metrics.ProcessedSetSize.Set(int64(processed.Len()))

	p.logger.Info("run complete",
		"fetched", report.Fetched,
		"already_processed", report.AlreadyProcessed,
		"skipped_photo", report.SkippedPhoto,
		"skipped_not_trade", report.SkippedNotTrade,
		"rewrite_failed", report.RewriteFailed,
		"published", report.Published,
		"publish_failed", report.PublishFailed,
	)
	return report, nil
}

// processOne resolves a single post. Whatever branch it takes, the post ID
// ends up in the processed set.
func (p *Pipeline) processOne(ctx context.Context, post domain.Post, media map[string]domain.MediaItem, processed *domain.ProcessedSet, report *Report) {
	defer processed.Add(post.ID)

	if HasPhotoAttachment(post, media) {
		p.logger.Info("skipping post: contains photos", "id", post.ID)
		metrics.PostsSkippedPhoto.Inc()
		report.SkippedPhoto++
		return
	}

	if p.classifier.Classify(ctx, post.Text) != domain.LabelTrade {
		p.logger.Info("skipping post: not a trade", "id", post.ID)
		metrics.PostsSkippedNotTrade.Inc()
		report.SkippedNotTrade++
		return
	}

	rewritten, ok := p.rewriter.Rewrite(ctx, post.Text)
	if !ok {
		p.logger.Warn("skipping post: rewrite failed", "id", post.ID)
		metrics.RewriteFailures.Inc()
		report.RewriteFailed++
		return
	}

	if err := p.publisher.Publish(ctx, rewritten); err != nil {
		// The post is still marked processed: one attempt, no re-queue.
		p.logger.Error("publish failed", "id", post.ID, "err", err)
		metrics.PublishFailures.Inc()
		report.PublishFailed++
		p.notify(ctx, fmt.Sprintf("tradebot: publish failed for post %s: %v", post.ID, err))
		return
	}

	p.logger.Info("published rewritten post", "id", post.ID)
	metrics.PostsPublished.Inc()
	report.Published++
	p.notify(ctx, fmt.Sprintf("tradebot: published rewrite of post %s", post.ID))
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(ctx, text)
}
