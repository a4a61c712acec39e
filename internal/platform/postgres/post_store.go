package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/inkwell-api/internal/domain"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
	"github.com/phrazzld/inkwell-api/internal/store"
)

// PostgresPostStore implements the store.PostStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPostStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPostStore creates a new PostgreSQL implementation of the PostStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
func NewPostgresPostStore(db store.DBTX) *PostgresPostStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresPostStore{
		db:     db,
		logger: slog.Default().With(slog.String("component", "post_store")),
	}
}

// Ensure PostgresPostStore implements store.PostStore interface
var _ store.PostStore = (*PostgresPostStore)(nil)

const postColumns = `id, author_id, category_id, title, slug, body, excerpt,
		reading_time_minutes, status, published_at, created_at, updated_at`

// Create implements store.PostStore.Create
// It validates the post before saving and handles potential slug collisions.
// Returns store.ErrSlugExists if the slug is already taken.
func (s *PostgresPostStore) Create(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		log.Warn("post validation failed during create",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		post.ID,
		post.AuthorID,
		post.CategoryID,
		post.Title,
		post.Slug,
		post.Body,
		post.Excerpt,
		post.ReadingTimeMinutes,
		post.Status,
		post.PublishedAt,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate slug during post creation",
				slog.String("post_id", post.ID.String()),
				slog.String("slug", post.Slug))
			return MapUniqueViolation(err, "", "", store.ErrSlugExists)
		}
		if IsForeignKeyViolation(err) {
			log.Debug("unknown author or category during post creation",
				slog.String("post_id", post.ID.String()))
			return MapError(err)
		}

		log.Error("failed to create post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return MapError(err)
	}

	log.Info("post created successfully",
		slog.String("post_id", post.ID.String()),
		slog.String("slug", post.Slug))
	return nil
}

// GetByID implements store.PostStore.GetByID
// Returns store.ErrPostNotFound if the post does not exist.
func (s *PostgresPostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving post by ID", slog.String("post_id", id.String()))

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1
	`

	var post domain.Post
	var statusStr string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.AuthorID,
		&post.CategoryID,
		&post.Title,
		&post.Slug,
		&post.Body,
		&post.Excerpt,
		&post.ReadingTimeMinutes,
		&statusStr,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("post not found", slog.String("post_id", id.String()))
			return nil, store.ErrPostNotFound
		}
		log.Error("failed to get post by ID",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return nil, err
	}

	post.Status = domain.PostStatus(statusStr)
	return &post, nil
}

// Update implements store.PostStore.Update
// It saves every mutable field of the post, including status and publication
// metadata, so services can persist a full lifecycle step in one statement.
// Returns store.ErrPostNotFound if the post does not exist and
// store.ErrSlugExists when updating to a slug that is already taken.
func (s *PostgresPostStore) Update(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		log.Warn("post validation failed during update",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	post.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE posts
		SET category_id = $1, title = $2, slug = $3, body = $4, excerpt = $5,
			reading_time_minutes = $6, status = $7, published_at = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		post.CategoryID,
		post.Title,
		post.Slug,
		post.Body,
		post.Excerpt,
		post.ReadingTimeMinutes,
		post.Status,
		post.PublishedAt,
		post.UpdatedAt,
		post.ID,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate slug during post update",
				slog.String("post_id", post.ID.String()),
				slog.String("slug", post.Slug))
			return MapUniqueViolation(err, "", "", store.ErrSlugExists)
		}

		log.Error("failed to update post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "post"); err != nil {
		log.Debug("post not found for update",
			slog.String("post_id", post.ID.String()))
		return store.ErrPostNotFound
	}

	log.Info("post updated successfully",
		slog.String("post_id", post.ID.String()),
		slog.String("status", string(post.Status)))
	return nil
}

// UpdateStatus implements store.PostStore.UpdateStatus
// It updates only the status column, used by the publishing pipeline to mark
// transient states without touching content fields.
// Returns store.ErrPostNotFound if the post does not exist.
func (s *PostgresPostStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PostStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		status,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		log.Error("failed to update post status",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "post"); err != nil {
		log.Debug("post not found for status update",
			slog.String("post_id", id.String()))
		return store.ErrPostNotFound
	}

	log.Info("post status updated successfully",
		slog.String("post_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete implements store.PostStore.Delete
// Returns store.ErrPostNotFound if the post does not exist.
func (s *PostgresPostStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM posts
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete post",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "post"); err != nil {
		log.Debug("post not found for delete",
			slog.String("post_id", id.String()))
		return store.ErrPostNotFound
	}

	log.Info("post deleted successfully",
		slog.String("post_id", id.String()))
	return nil
}

// ListPublished implements store.PostStore.ListPublished
// It retrieves published posts ordered by publication time, newest first,
// optionally filtered to a single category by slug.
// Returns an empty slice if no posts match the criteria.
func (s *PostgresPostStore) ListPublished(
	ctx context.Context,
	categorySlug string,
	limit, offset int,
) ([]*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit, offset = normalizePage(limit, offset)

	log.Debug("listing published posts",
		slog.String("category_slug", categorySlug),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3
	`
	args := []interface{}{domain.PostStatusPublished, limit, offset}

	if categorySlug != "" {
		query = `
		SELECT p.id, p.author_id, p.category_id, p.title, p.slug, p.body, p.excerpt,
			p.reading_time_minutes, p.status, p.published_at, p.created_at, p.updated_at
		FROM posts p
		JOIN categories c ON c.id = p.category_id
		WHERE p.status = $1 AND c.slug = $2
		ORDER BY p.published_at DESC
		LIMIT $3 OFFSET $4
	`
		args = []interface{}{domain.PostStatusPublished, categorySlug, limit, offset}
	}

	return s.listPosts(ctx, log, query, args...)
}

// ListByAuthor implements store.PostStore.ListByAuthor
// It retrieves the author's posts in any status, newest first.
// Returns an empty slice if the author has no posts.
func (s *PostgresPostStore) ListByAuthor(
	ctx context.Context,
	authorID uuid.UUID,
	limit, offset int,
) ([]*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit, offset = normalizePage(limit, offset)

	log.Debug("listing posts by author",
		slog.String("author_id", authorID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return s.listPosts(ctx, log, query, authorID, limit, offset)
}

// listPosts runs a post query and scans the result set into domain posts.
func (s *PostgresPostStore) listPosts(
	ctx context.Context,
	log *slog.Logger,
	query string,
	args ...interface{},
) ([]*domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query posts",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		var statusStr string

		err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.CategoryID,
			&post.Title,
			&post.Slug,
			&post.Body,
			&post.Excerpt,
			&post.ReadingTimeMinutes,
			&statusStr,
			&post.PublishedAt,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan post row",
				slog.String("error", err.Error()))
			return nil, err
		}

		post.Status = domain.PostStatus(statusStr)
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no posts found
	if posts == nil {
		posts = []*domain.Post{}
	}

	log.Debug("found posts", slog.Int("count", len(posts)))
	return posts, nil
}

// normalizePage clamps paging parameters to sane values.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10 // Default limit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// WithTx implements store.PostStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresPostStore) WithTx(tx *sql.Tx) store.PostStore {
	return &PostgresPostStore{
		db:     tx,
		logger: s.logger,
	}
}
