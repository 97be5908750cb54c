// Package pipeline drives one full tick of the bot: pull the newest posts
// from every watched subreddit into the store, then drain the unprocessed
// backlog through classification, reply generation and quota-gated
// publishing.
package pipeline

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"

	"github.com/first2apply/redditbot/chatbot"
	"github.com/first2apply/redditbot/model"
)

type SourceFeed interface {
	FetchNewest(ctx context.Context, subreddit string, limit int) ([]model.Post, error)
}

type PostStore interface {
	UpsertPosts(ctx context.Context, posts []model.Post) error
	GetUnprocessedPosts(ctx context.Context) ([]model.Post, error)
	MarkPostProcessed(ctx context.Context, postID string) error
	SaveReply(ctx context.Context, postID string, text string) error
}

type Publisher interface {
	ReplyToPost(ctx context.Context, externalID string, text string) error
}

type Config struct {
	Subreddits        []string
	PostsPerSubreddit int
	ReplyQuota        int
	TestMode          bool

	// Rand drives the processing-order shuffle. Leave nil in production to
	// seed from the clock; tests pass a fixed seed for deterministic order.
	Rand *rand.Rand
}

type Pipeline struct {
	feed      SourceFeed
	store     PostStore
	bot       chatbot.Chatbot
	publisher Publisher
	cfg       Config
	rng       *rand.Rand

	// Guards against overlapping ticks: the eager startup run and the first
	// scheduled run must never interleave against the same store.
	mu sync.Mutex
}

func NewPipeline(feed SourceFeed, store PostStore, bot chatbot.Chatbot, publisher Publisher, cfg Config) *Pipeline {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pipeline{
		feed:      feed,
		store:     store,
		bot:       bot,
		publisher: publisher,
		cfg:       cfg,
		rng:       rng,
	}
}

// Run executes one tick. Errors end the tick early and are logged, never
// returned; whatever remains unprocessed is retried on the next tick. A tick
// that fires while the previous one is still running is skipped.
func (p *Pipeline) Run(ctx context.Context) {
	if !p.mu.TryLock() {
		log.Warn("previous tick still running, skipping this one")
		return
	}
	defer p.mu.Unlock()

	log.Info("getting latest posts...")
	if err := p.IngestLatest(ctx); err != nil {
		log.Errorf("error ingesting posts: %v", err)
		return
	}
	log.Info("processing newest posts...")
	if err := p.ProcessUnprocessed(ctx, p.cfg.ReplyQuota); err != nil {
		log.Errorf("error processing posts: %v", err)
	}
}

// IngestLatest fetches the newest posts for every configured subreddit and
// upserts them, one batch per subreddit. A fetch or upsert failure aborts
// the remaining subreddits for this tick.
func (p *Pipeline) IngestLatest(ctx context.Context) error {
	for _, subreddit := range p.cfg.Subreddits {
		fetched, err := p.feed.FetchNewest(ctx, subreddit, p.cfg.PostsPerSubreddit)
		if err != nil {
			return err
		}

		// Listings can hand back the same post twice; collapse on external
		// ID so the upsert batch stays conflict-free.
		byExternalID := map[string]model.Post{}
		for _, post := range fetched {
			if _, ok := byExternalID[post.ExternalID]; ok {
				log.Warnf("duplicate post in r/%s listing: %s", subreddit, post.ExternalID)
			}
			byExternalID[post.ExternalID] = post
		}

		if err := p.store.UpsertPosts(ctx, maps.Values(byExternalID)); err != nil {
			return err
		}
		log.WithField("subreddit", subreddit).Infof("ingested %d posts", len(byExternalID))
	}
	return nil
}

// ProcessUnprocessed drains every post that hasn't been through a processing
// pass yet, in uniformly random order so no single subreddit hogs the reply
// quota when the backlog exceeds it. Classification and generation errors
// abort the rest of the batch; the post that failed is still marked
// processed before the error propagates.
func (p *Pipeline) ProcessUnprocessed(ctx context.Context, maxPublishes int) error {
	batch, err := p.store.GetUnprocessedPosts(ctx)
	if err != nil {
		return err
	}
	log.Infof("found %d unprocessed posts", len(batch))

	p.rng.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})

	remaining := maxPublishes
	for _, post := range batch {
		if err := p.processPost(ctx, post, &remaining); err != nil {
			return err
		}
	}
	return nil
}

// processPost runs a single post through classify → generate → persist →
// publish. Whatever happens, the post is marked processed on the way out so
// the store never forgets it was attempted.
func (p *Pipeline) processPost(ctx context.Context, post model.Post, remaining *int) (err error) {
	defer func() {
		if markErr := p.store.MarkPostProcessed(ctx, post.ID); markErr != nil {
			log.WithField("postID", post.ID).Errorf("error marking post as processed: %v", markErr)
			if err == nil {
				err = markErr
			}
		}
	}()

	log.Debug("checking if post is relevant...")
	relevant, err := p.bot.IsPostRelevant(ctx, post)
	if err != nil {
		return err
	}
	log.Infof("%t - %s", relevant, post.Title)
	if !relevant {
		return nil
	}

	reply, err := p.bot.GenerateReply(ctx, post)
	if err != nil {
		return err
	}

	// Persist the reply before trying to publish it; the generated text must
	// survive a publish failure.
	if err := p.store.SaveReply(ctx, post.ID, reply); err != nil {
		return err
	}
	log.Infof("reply: %s", reply)

	if *remaining <= 0 {
		log.Info("skipping replying to post because we're out of quota for this run")
		return nil
	}

	if p.cfg.TestMode {
		log.WithField("externalID", post.ExternalID).Info("simulating reply to post")
	} else {
		if err := p.publisher.ReplyToPost(ctx, post.ExternalID, reply); err != nil {
			return err
		}
		log.Infof("replied to post: %s", post.ExternalID)
	}
	*remaining--

	return nil
}
