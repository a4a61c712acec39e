package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/store"
	"github.com/phrazzld/inkwell-api/internal/task"
)

// newTestPostService builds a PostService backed by the given mocks.
func newTestPostService(
	t *testing.T,
	posts *mockPostRepository,
	categories *mockCategoryRepository,
	emitter *mockEventEmitter,
) PostService {
	t.Helper()

	svc, err := NewPostService(posts, categories, emitter, testLogger())
	require.NoError(t, err)
	return svc
}

// draftPost returns a valid draft post owned by the given author.
func draftPost(t *testing.T, authorID uuid.UUID) *domain.Post {
	t.Helper()

	post, err := domain.NewPost(authorID, "Going Async", strings.Repeat("another word ", 120), nil)
	require.NoError(t, err)
	return post
}

func TestNewPostService(t *testing.T) {
	t.Parallel()

	posts := &mockPostRepository{}
	categories := &mockCategoryRepository{}
	emitter := &mockEventEmitter{}

	t.Run("creates service with valid dependencies", func(t *testing.T) {
		t.Parallel()

		svc, err := NewPostService(posts, categories, emitter, testLogger())
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("requires a post repository", func(t *testing.T) {
		t.Parallel()

		_, err := NewPostService(nil, categories, emitter, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postRepo cannot be nil")
	})

	t.Run("requires a category repository", func(t *testing.T) {
		t.Parallel()

		_, err := NewPostService(posts, nil, emitter, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "categoryRepo cannot be nil")
	})

	t.Run("requires an event emitter", func(t *testing.T) {
		t.Parallel()

		_, err := NewPostService(posts, categories, nil, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "eventEmitter cannot be nil")
	})
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorID := uuid.New()
	body := strings.Repeat("each word counts ", 80)

	t.Run("creates a draft post", func(t *testing.T) {
		t.Parallel()

		var saved *domain.Post
		posts := &mockPostRepository{
			CreateFn: func(ctx context.Context, post *domain.Post) error {
				saved = post
				return nil
			},
		}
		emitter := &mockEventEmitter{}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, emitter)

		post, err := svc.CreatePost(ctx, authorID, "My First Post", body, nil)
		require.NoError(t, err)

		assert.Equal(t, saved, post)
		assert.Equal(t, authorID, post.AuthorID)
		assert.Equal(t, domain.PostStatusDraft, post.Status)
		assert.Equal(t, "my-first-post", post.Slug)
		assert.Nil(t, post.CategoryID)
		assert.Empty(t, emitter.events, "creating a draft must not request background work")
	})

	t.Run("verifies the category when one is given", func(t *testing.T) {
		t.Parallel()

		categoryID := uuid.New()
		categories := &mockCategoryRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
				assert.Equal(t, categoryID, id)
				return &domain.Category{ID: id}, nil
			},
		}
		svc := newTestPostService(t, &mockPostRepository{}, categories, &mockEventEmitter{})

		post, err := svc.CreatePost(ctx, authorID, "My First Post", body, &categoryID)
		require.NoError(t, err)
		require.NotNil(t, post.CategoryID)
		assert.Equal(t, categoryID, *post.CategoryID)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		t.Parallel()

		categoryID := uuid.New()
		categories := &mockCategoryRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
				return nil, store.ErrCategoryNotFound
			},
		}
		posts := &mockPostRepository{}
		svc := newTestPostService(t, posts, categories, &mockEventEmitter{})

		_, err := svc.CreatePost(ctx, authorID, "My First Post", body, &categoryID)
		assert.ErrorIs(t, err, store.ErrCategoryNotFound)
		assert.Zero(t, posts.createCalls)
	})

	t.Run("retries with a suffix when the slug is taken", func(t *testing.T) {
		t.Parallel()

		posts := &mockPostRepository{}
		posts.CreateFn = func(ctx context.Context, post *domain.Post) error {
			if posts.createCalls == 1 {
				return store.ErrSlugExists
			}
			return nil
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		post, err := svc.CreatePost(ctx, authorID, "My First Post", body, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, posts.createCalls)
		assert.True(t, strings.HasPrefix(post.Slug, "my-first-post-"), "slug %q should carry a suffix", post.Slug)
		assert.Len(t, post.Slug, len("my-first-post-")+6)
	})

	t.Run("gives up after repeated slug collisions", func(t *testing.T) {
		t.Parallel()

		posts := &mockPostRepository{
			CreateFn: func(ctx context.Context, post *domain.Post) error {
				return store.ErrSlugExists
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.CreatePost(ctx, authorID, "My First Post", body, nil)
		assert.ErrorIs(t, err, store.ErrSlugExists)
		assert.Equal(t, slugRetryLimit+1, posts.createCalls)
	})

	t.Run("rejects invalid post data", func(t *testing.T) {
		t.Parallel()

		posts := &mockPostRepository{}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.CreatePost(ctx, authorID, "", body, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, posts.createCalls)
	})
}

func TestGetPost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns the post", func(t *testing.T) {
		t.Parallel()

		want := draftPost(t, uuid.New())
		posts := &mockPostRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				assert.Equal(t, want.ID, id)
				return want, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		got, err := svc.GetPost(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		t.Parallel()

		posts := &mockPostRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return nil, errors.New("connection reset")
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.GetPost(ctx, uuid.New())
		require.Error(t, err)

		var svcErr *PostServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "get_post", svcErr.Operation)
	})
}

func TestGetPublishedPost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns a published post", func(t *testing.T) {
		t.Parallel()

		want := draftPost(t, uuid.New())
		want.Status = domain.PostStatusPublished
		posts := &mockPostRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return want, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		got, err := svc.GetPublishedPost(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("hides unpublished posts", func(t *testing.T) {
		t.Parallel()

		post := draftPost(t, uuid.New())
		posts := &mockPostRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return post, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.GetPublishedPost(ctx, post.ID)
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})

	t.Run("propagates not found", func(t *testing.T) {
		t.Parallel()

		posts := &mockPostRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return nil, store.ErrPostNotFound
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.GetPublishedPost(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrPostNotFound)
	})
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("lists published posts with the given filter", func(t *testing.T) {
		t.Parallel()

		want := []*domain.Post{draftPost(t, uuid.New())}
		posts := &mockPostRepository{
			ListPublishedFn: func(ctx context.Context, categorySlug string, limit, offset int) ([]*domain.Post, error) {
				assert.Equal(t, "golang", categorySlug)
				assert.Equal(t, 20, limit)
				assert.Equal(t, 40, offset)
				return want, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		got, err := svc.ListPublishedPosts(ctx, "golang", 20, 40)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("lists the author's posts", func(t *testing.T) {
		t.Parallel()

		authorID := uuid.New()
		want := []*domain.Post{draftPost(t, authorID)}
		posts := &mockPostRepository{
			ListByAuthorFn: func(ctx context.Context, id uuid.UUID, limit, offset int) ([]*domain.Post, error) {
				assert.Equal(t, authorID, id)
				return want, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		got, err := svc.ListPostsByAuthor(ctx, authorID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorID := uuid.New()

	t.Run("updates title, body and category", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		originalSlug := existing.Slug

		newCategory := uuid.New()
		var saved *domain.Post
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
			UpdateFn: func(ctx context.Context, post *domain.Post) error {
				saved = post
				return nil
			},
		}
		categories := &mockCategoryRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
				return &domain.Category{ID: id}, nil
			},
		}
		svc := newTestPostService(t, posts, categories, &mockEventEmitter{})

		updated, err := svc.UpdatePost(ctx, existing.ID, authorID, "Still Going Async", "Rewritten body.", &newCategory)
		require.NoError(t, err)

		assert.Equal(t, saved, updated)
		assert.Equal(t, "Still Going Async", updated.Title)
		assert.Equal(t, "Rewritten body.", updated.Body)
		require.NotNil(t, updated.CategoryID)
		assert.Equal(t, newCategory, *updated.CategoryID)
		assert.Equal(t, originalSlug, updated.Slug, "editing must not change the slug")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects another author's post", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, uuid.New())
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.UpdatePost(ctx, existing.ID, authorID, "Title", "Body", nil)
		assert.ErrorIs(t, err, ErrNotOwned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a post that is being published", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, authorID)
		existing.Status = domain.PostStatusPublishing
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.UpdatePost(ctx, existing.ID, authorID, "Title", "Body", nil)
		assert.ErrorIs(t, err, ErrPostBeingPublished)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the save fails", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, authorID)
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
			UpdateFn: func(ctx context.Context, post *domain.Post) error {
				return errors.New("deadlock detected")
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.UpdatePost(ctx, existing.ID, authorID, "Title", "Body", nil)
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorID := uuid.New()

	t.Run("deletes the author's post", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
			DeleteFn: func(ctx context.Context, id uuid.UUID) error {
				assert.Equal(t, existing.ID, id)
				return nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		err := svc.DeletePost(ctx, existing.ID, authorID)
		require.NoError(t, err)
		assert.Equal(t, 1, posts.deleteCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects another author's post", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, uuid.New())
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		err := svc.DeletePost(ctx, existing.ID, authorID)
		assert.ErrorIs(t, err, ErrNotOwned)
		assert.Zero(t, posts.deleteCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPublishPost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorID := uuid.New()

	t.Run("marks the post publishing and emits the task request", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		emitter := &mockEventEmitter{}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, emitter)

		post, err := svc.PublishPost(ctx, existing.ID, authorID)
		require.NoError(t, err)
		assert.Equal(t, domain.PostStatusPublishing, post.Status)

		require.Len(t, emitter.events, 1)
		event := emitter.events[0]
		assert.Equal(t, task.TaskTypePostPublish, event.Type)

		var payload struct {
			PostID uuid.UUID `json:"post_id"`
		}
		require.NoError(t, event.UnmarshalPayload(&payload))
		assert.Equal(t, existing.ID, payload.PostID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("succeeds even when emission fails", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		emitter := &mockEventEmitter{err: errors.New("handler unavailable")}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, emitter)

		post, err := svc.PublishPost(ctx, existing.ID, authorID)
		require.NoError(t, err, "the committed status change must win over a lost event")
		assert.Equal(t, domain.PostStatusPublishing, post.Status)
	})

	t.Run("allows retrying a failed publication", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		existing.Status = domain.PostStatusFailed
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		post, err := svc.PublishPost(ctx, existing.ID, authorID)
		require.NoError(t, err)
		assert.Equal(t, domain.PostStatusPublishing, post.Status)
	})

	t.Run("rejects an already published post", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, authorID)
		existing.Status = domain.PostStatusPublished
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		emitter := &mockEventEmitter{}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, emitter)

		_, err := svc.PublishPost(ctx, existing.ID, authorID)
		assert.ErrorIs(t, err, domain.ErrInvalidPostStatusTransition)
		assert.Empty(t, emitter.events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchivePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	authorID := uuid.New()

	t.Run("archives a published post", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, authorID)
		existing.Status = domain.PostStatusPublished
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		post, err := svc.ArchivePost(ctx, existing.ID, authorID)
		require.NoError(t, err)
		assert.Equal(t, domain.PostStatusArchived, post.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a draft", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, authorID)
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		_, err := svc.ArchivePost(ctx, existing.ID, authorID)
		assert.ErrorIs(t, err, domain.ErrInvalidPostStatusTransition)
	})
}

func TestFinalizePublish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("publishes and derives display fields", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, uuid.New())
		existing.Status = domain.PostStatusPublishing
		var saved *domain.Post
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
			UpdateFn: func(ctx context.Context, post *domain.Post) error {
				saved = post
				return nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		publishedAt := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
		err := svc.FinalizePublish(ctx, existing.ID, publishedAt)
		require.NoError(t, err)

		require.NotNil(t, saved)
		assert.Equal(t, domain.PostStatusPublished, saved.Status)
		require.NotNil(t, saved.PublishedAt)
		assert.True(t, saved.PublishedAt.Equal(publishedAt))
		assert.NotEmpty(t, saved.Excerpt)
		assert.GreaterOrEqual(t, saved.ReadingTimeMinutes, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails for a post that is not publishing", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		existing := draftPost(t, uuid.New())
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		err := svc.FinalizePublish(ctx, existing.ID, time.Now())
		assert.ErrorIs(t, err, domain.ErrInvalidPostStatusTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkPublishFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("moves a publishing post to failed", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		existing := draftPost(t, uuid.New())
		existing.Status = domain.PostStatusPublishing
		var saved *domain.Post
		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return existing, nil
			},
			UpdateFn: func(ctx context.Context, post *domain.Post) error {
				saved = post
				return nil
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		err := svc.MarkPublishFailed(ctx, existing.ID)
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, domain.PostStatusFailed, saved.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates not found", func(t *testing.T) {
		t.Parallel()

		db, mock := newTxDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		posts := &mockPostRepository{
			db: db,
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
				return nil, store.ErrPostNotFound
			},
		}
		svc := newTestPostService(t, posts, &mockCategoryRepository{}, &mockEventEmitter{})

		err := svc.MarkPublishFailed(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrPostNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
