package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the lifecycle state of a post
type PostStatus string

// Possible post status values
const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
	PostStatusArchived   PostStatus = "archived"
)

// Common validation errors for Post
var (
	ErrEmptyPostID                 = fmt.Errorf("%w: post ID cannot be empty", ErrValidation)
	ErrEmptyPostAuthorID           = fmt.Errorf("%w: post author ID cannot be empty", ErrValidation)
	ErrEmptyPostTitle              = fmt.Errorf("%w: post title cannot be empty", ErrValidation)
	ErrPostTitleTooLong            = fmt.Errorf("%w: post title must be at most 200 characters long", ErrValidation)
	ErrEmptyPostBody               = fmt.Errorf("%w: post body cannot be empty", ErrValidation)
	ErrEmptyPostSlug               = fmt.Errorf("%w: post slug cannot be empty", ErrValidation)
	ErrInvalidPostStatus           = fmt.Errorf("%w: invalid post status", ErrValidation)
	ErrInvalidPostStatusTransition = errors.New("invalid post status transition")
)

// Maximum lengths for post fields.
const (
	maxPostTitleLength = 200
	postExcerptLength  = 200
)

// Post represents an article written by a user. It tracks the content, the
// optional category assignment, and the publication lifecycle state.
type Post struct {
	ID                 uuid.UUID  `json:"id"`
	AuthorID           uuid.UUID  `json:"author_id"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Body               string     `json:"body"`
	Excerpt            string     `json:"excerpt,omitempty"`
	ReadingTimeMinutes int        `json:"reading_time_minutes,omitempty"`
	Status             PostStatus `json:"status"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewPost creates a new draft Post for the given author.
// It generates a new UUID for the post ID, derives the slug from the title,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewPost(authorID uuid.UUID, title, body string, categoryID *uuid.UUID) (*Post, error) {
	post := &Post{
		ID:         uuid.New(),
		AuthorID:   authorID,
		CategoryID: categoryID,
		Title:      title,
		Slug:       Slugify(title),
		Body:       body,
		Status:     PostStatusDraft,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	return post, nil
}

// Validate checks if the Post has valid data.
// Returns an error if any field fails validation.
func (p *Post) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPostID
	}

	if p.AuthorID == uuid.Nil {
		return ErrEmptyPostAuthorID
	}

	if p.Title == "" {
		return ErrEmptyPostTitle
	}

	if len(p.Title) > maxPostTitleLength {
		return ErrPostTitleTooLong
	}

	if p.Body == "" {
		return ErrEmptyPostBody
	}

	if p.Slug == "" {
		return ErrEmptyPostSlug
	}

	if !isValidPostStatus(p.Status) {
		return ErrInvalidPostStatus
	}

	return nil
}

// UpdateStatus moves the post to the given status and updates the UpdatedAt
// timestamp. Only legal lifecycle transitions are allowed: draft and failed
// posts can start publishing, publishing resolves to published or failed,
// and published posts can be archived.
func (p *Post) UpdateStatus(status PostStatus) error {
	if !isValidPostStatus(status) {
		return ErrInvalidPostStatus
	}

	if !canTransition(p.Status, status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidPostStatusTransition, p.Status, status)
	}

	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Publish marks the post published at the given time and fills the derived
// reading fields from the current body. The post must be in the publishing
// state.
func (p *Post) Publish(at time.Time) error {
	if err := p.UpdateStatus(PostStatusPublished); err != nil {
		return err
	}

	at = at.UTC()
	p.PublishedAt = &at
	p.Excerpt = GenerateExcerpt(p.Body, postExcerptLength)
	p.ReadingTimeMinutes = EstimateReadingTime(p.Body)
	return nil
}

// isValidPostStatus checks if the given status is a valid PostStatus.
func isValidPostStatus(status PostStatus) bool {
	switch status {
	case PostStatusDraft, PostStatusPublishing, PostStatusPublished,
		PostStatusFailed, PostStatusArchived:
		return true
	default:
		return false
	}
}

// canTransition reports whether moving from one status to another is a legal
// lifecycle transition.
func canTransition(from, to PostStatus) bool {
	switch from {
	case PostStatusDraft, PostStatusFailed:
		return to == PostStatusPublishing
	case PostStatusPublishing:
		return to == PostStatusPublished || to == PostStatusFailed
	case PostStatusPublished:
		return to == PostStatusArchived
	default:
		return false
	}
}

// Slugify converts s into a URL-safe slug: lowercase ASCII letters and digits
// separated by single hyphens. Any other characters collapse into a hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// wordsPerMinute is the average reading speed used for estimates.
const wordsPerMinute = 200

// EstimateReadingTime returns the estimated minutes needed to read body,
// always at least 1.
func EstimateReadingTime(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// GenerateExcerpt returns the leading part of body with whitespace collapsed,
// at most maxLen runes, cut on a word boundary with a trailing ellipsis when
// truncated.
func GenerateExcerpt(body string, maxLen int) string {
	joined := strings.Join(strings.Fields(body), " ")
	runes := []rune(joined)
	if len(runes) <= maxLen {
		return joined
	}

	cut := string(runes[:maxLen])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
