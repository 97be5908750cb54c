package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/first2apply/redditbot/model"
)

type MockSourceFeed struct {
	mock.Mock
}

func (m *MockSourceFeed) FetchNewest(ctx context.Context, subreddit string, limit int) ([]model.Post, error) {
	args := m.Called(ctx, subreddit, limit)
	return args.Get(0).([]model.Post), args.Error(1)
}

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) UpsertPosts(ctx context.Context, posts []model.Post) error {
	args := m.Called(ctx, posts)
	return args.Error(0)
}

func (m *MockPostStore) GetUnprocessedPosts(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostStore) MarkPostProcessed(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockPostStore) SaveReply(ctx context.Context, postID string, text string) error {
	args := m.Called(ctx, postID, text)
	return args.Error(0)
}

type MockChatbot struct {
	mock.Mock
}

func (m *MockChatbot) IsPostRelevant(ctx context.Context, post model.Post) (bool, error) {
	args := m.Called(ctx, post)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatbot) GenerateReply(ctx context.Context, post model.Post) (string, error) {
	args := m.Called(ctx, post)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) ReplyToPost(ctx context.Context, externalID string, text string) error {
	args := m.Called(ctx, externalID, text)
	return args.Error(0)
}

func testPost(n int) model.Post {
	return model.Post{
		ID:         fmt.Sprintf("internal%d", n),
		ExternalID: fmt.Sprintf("t3_post%d", n),
		Title:      fmt.Sprintf("title %d", n),
		Content:    fmt.Sprintf("content %d", n),
		URL:        fmt.Sprintf("https://www.reddit.com/r/jobs/comments/post%d", n),
	}
}

func testPosts(n int) []model.Post {
	posts := make([]model.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, testPost(i))
	}
	return posts
}

func newTestPipeline(feed SourceFeed, store PostStore, bot *MockChatbot, publisher *MockPublisher, cfg Config) *Pipeline {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(42))
	}
	return NewPipeline(feed, store, bot, publisher, cfg)
}

func TestIngestLatest(t *testing.T) {
	t.Run("upserts one batch per subreddit", func(t *testing.T) {
		jobsPosts := testPosts(3)
		layoffsPosts := []model.Post{testPost(4)}

		mockFeed := new(MockSourceFeed)
		mockFeed.On("FetchNewest", mock.Anything, "jobs", 10).Return(jobsPosts, nil)
		mockFeed.On("FetchNewest", mock.Anything, "layoffs", 10).Return(layoffsPosts, nil)
		mockStore := new(MockPostStore)
		mockStore.On("UpsertPosts", mock.Anything, mock.Anything).Return(nil)

		pipe := newTestPipeline(mockFeed, mockStore, new(MockChatbot), new(MockPublisher), Config{
			Subreddits:        []string{"jobs", "layoffs"},
			PostsPerSubreddit: 10,
		})

		err := pipe.IngestLatest(context.TODO())
		assert.NoError(t, err)
		mockFeed.AssertNumberOfCalls(t, "FetchNewest", 2)
		mockStore.AssertNumberOfCalls(t, "UpsertPosts", 2)
	})

	t.Run("collapses duplicate posts within a listing", func(t *testing.T) {
		posts := []model.Post{testPost(1), testPost(1), testPost(2)}

		mockFeed := new(MockSourceFeed)
		mockFeed.On("FetchNewest", mock.Anything, "jobs", 10).Return(posts, nil)
		mockStore := new(MockPostStore)
		mockStore.On("UpsertPosts", mock.Anything, mock.MatchedBy(func(batch []model.Post) bool {
			return len(batch) == 2
		})).Return(nil)

		pipe := newTestPipeline(mockFeed, mockStore, new(MockChatbot), new(MockPublisher), Config{
			Subreddits:        []string{"jobs"},
			PostsPerSubreddit: 10,
		})

		err := pipe.IngestLatest(context.TODO())
		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("stops at the first source failure", func(t *testing.T) {
		mockFeed := new(MockSourceFeed)
		mockFeed.On("FetchNewest", mock.Anything, "jobs", 10).Return([]model.Post{}, fmt.Errorf("reddit is down"))
		mockStore := new(MockPostStore)

		pipe := newTestPipeline(mockFeed, mockStore, new(MockChatbot), new(MockPublisher), Config{
			Subreddits:        []string{"jobs", "layoffs"},
			PostsPerSubreddit: 10,
		})

		err := pipe.IngestLatest(context.TODO())
		assert.Error(t, err)
		mockFeed.AssertNumberOfCalls(t, "FetchNewest", 1)
		mockStore.AssertNumberOfCalls(t, "UpsertPosts", 0)
	})
}

func TestProcessUnprocessed(t *testing.T) {
	t.Run("replies to relevant posts and marks everything processed", func(t *testing.T) {
		p1, p2, p3 := testPost(1), testPost(2), testPost(3)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return([]model.Post{p1, p2, p3}, nil)
		mockStore.On("SaveReply", mock.Anything, mock.Anything, "Nice!").Return(nil)
		mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, p1).Return(true, nil)
		mockBot.On("IsPostRelevant", mock.Anything, p2).Return(false, nil)
		mockBot.On("IsPostRelevant", mock.Anything, p3).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, mock.Anything).Return("Nice!", nil)
		mockPublisher := new(MockPublisher)
		mockPublisher.On("ReplyToPost", mock.Anything, mock.Anything, "Nice!").Return(nil)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 2)
		assert.NoError(t, err)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 2)
		mockPublisher.AssertNumberOfCalls(t, "ReplyToPost", 2)
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 3)
		mockStore.AssertCalled(t, "SaveReply", mock.Anything, p1.ID, "Nice!")
		mockStore.AssertCalled(t, "SaveReply", mock.Anything, p3.ID, "Nice!")
	})

	t.Run("publishes at most maxPublishes replies", func(t *testing.T) {
		batch := testPosts(5)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return(batch, nil)
		mockStore.On("SaveReply", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, mock.Anything).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, mock.Anything).Return("Nice!", nil)
		mockPublisher := new(MockPublisher)
		mockPublisher.On("ReplyToPost", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 2)
		assert.NoError(t, err)
		mockPublisher.AssertNumberOfCalls(t, "ReplyToPost", 2)
		// Replies past the quota are still generated and persisted.
		mockStore.AssertNumberOfCalls(t, "SaveReply", 5)
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 5)
	})

	t.Run("never saves a reply for posts judged not relevant", func(t *testing.T) {
		batch := testPosts(3)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return(batch, nil)
		mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, mock.Anything).Return(false, nil)
		mockPublisher := new(MockPublisher)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 10)
		assert.NoError(t, err)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 0)
		mockPublisher.AssertNumberOfCalls(t, "ReplyToPost", 0)
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 3)
	})

	t.Run("marks the failing post processed and aborts the rest of the batch", func(t *testing.T) {
		batch := testPosts(5)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return(batch, nil)
		mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, mock.Anything).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, mock.Anything).Return("", fmt.Errorf("model fell over"))
		mockPublisher := new(MockPublisher)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 10)
		assert.Error(t, err)
		// The post that blew up is still marked processed; the four posts
		// never reached stay unprocessed for the next tick.
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 1)
		mockBot.AssertNumberOfCalls(t, "GenerateReply", 1)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 0)
	})

	t.Run("propagates publish errors after persisting the reply", func(t *testing.T) {
		post := testPost(1)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return([]model.Post{post}, nil)
		mockStore.On("SaveReply", mock.Anything, post.ID, "Nice!").Return(nil)
		mockStore.On("MarkPostProcessed", mock.Anything, post.ID).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, post).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, post).Return("Nice!", nil)
		mockPublisher := new(MockPublisher)
		mockPublisher.On("ReplyToPost", mock.Anything, post.ExternalID, "Nice!").Return(fmt.Errorf("comment rejected"))

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 10)
		assert.Error(t, err)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 1)
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 1)
	})

	t.Run("persists but does not publish once the quota is exhausted", func(t *testing.T) {
		batch := testPosts(2)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return(batch, nil)
		mockStore.On("SaveReply", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, mock.Anything).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, mock.Anything).Return("Nice!", nil)
		mockPublisher := new(MockPublisher)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{})

		err := pipe.ProcessUnprocessed(context.TODO(), 0)
		assert.NoError(t, err)
		mockPublisher.AssertNumberOfCalls(t, "ReplyToPost", 0)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 2)
		mockStore.AssertNumberOfCalls(t, "MarkPostProcessed", 2)
	})

	t.Run("does not actually post if test mode is engaged", func(t *testing.T) {
		post := testPost(1)

		mockStore := new(MockPostStore)
		mockStore.On("GetUnprocessedPosts", mock.Anything).Return([]model.Post{post}, nil)
		mockStore.On("SaveReply", mock.Anything, post.ID, "Nice!").Return(nil)
		mockStore.On("MarkPostProcessed", mock.Anything, post.ID).Return(nil)
		mockBot := new(MockChatbot)
		mockBot.On("IsPostRelevant", mock.Anything, post).Return(true, nil)
		mockBot.On("GenerateReply", mock.Anything, post).Return("Nice!", nil)
		mockPublisher := new(MockPublisher)

		pipe := newTestPipeline(new(MockSourceFeed), mockStore, mockBot, mockPublisher, Config{TestMode: true})

		err := pipe.ProcessUnprocessed(context.TODO(), 10)
		assert.NoError(t, err)
		mockPublisher.AssertNumberOfCalls(t, "ReplyToPost", 0)
		mockStore.AssertNumberOfCalls(t, "SaveReply", 1)
	})

	t.Run("shuffles deterministically for a fixed seed", func(t *testing.T) {
		batch := testPosts(8)

		processingOrder := func(seed int64) []string {
			var order []string
			mockStore := new(MockPostStore)
			mockStore.On("GetUnprocessedPosts", mock.Anything).Return(batch, nil)
			mockStore.On("MarkPostProcessed", mock.Anything, mock.Anything).Return(nil)
			mockBot := new(MockChatbot)
			mockBot.On("IsPostRelevant", mock.Anything, mock.Anything).Return(false, nil).Run(func(args mock.Arguments) {
				order = append(order, args.Get(1).(model.Post).ID)
			})

			pipe := NewPipeline(new(MockSourceFeed), mockStore, mockBot, new(MockPublisher), Config{
				Rand: rand.New(rand.NewSource(seed)),
			})
			err := pipe.ProcessUnprocessed(context.TODO(), 10)
			assert.NoError(t, err)
			return order
		}

		assert.Equal(t, processingOrder(7), processingOrder(7))
	})
}
