package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/errs"
)

var postColumns = []string{
	"id", "raw_article_id", "category", "headline", "summary", "body", "hashtags", "attribution",
	"headline_tr", "summary_tr", "body_tr", "hashtags_tr", "attribution_tr",
	"translated_language", "translated_at", "status", "generated_by", "created_at", "updated_at",
}

// PostRepo handles database operations for generated posts
type PostRepo struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

// InsertGeneratedPost stores a new draft post. A second post for the same raw
// article fails with errs.ErrConflict.
func (r *PostRepo) InsertGeneratedPost(ctx context.Context, post GeneratedPost) (*GeneratedPost, error) {
	hashtags, err := encodeHashtags(post.Hashtags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post.ID = uuid.NewString()
	if post.Status == "" {
		post.Status = PostStatusDraft
	}
	post.Category = defaultString(post.Category, "global")

	query, args, err := builder.Insert("generated_posts").
		Columns("id", "raw_article_id", "category", "headline", "summary", "body", "hashtags", "attribution",
			"status", "generated_by", "created_at", "updated_at").
		Values(post.ID, post.RawArticleID, post.Category, post.Headline, post.Summary, post.Body, hashtags, post.Attribution,
			post.Status, post.GeneratedBy, now, now).
		Suffix("ON CONFLICT(raw_article_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build post insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: post already exists for article %s", errs.ErrConflict, post.RawArticleID)
	}

	post.CreatedAt = now
	post.UpdatedAt = now
	return &post, nil
}

func (r *PostRepo) GetPost(ctx context.Context, id string) (*GeneratedPost, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *PostRepo) GetPostByRawArticleID(ctx context.Context, rawArticleID string) (*GeneratedPost, error) {
	return r.get(ctx, sq.Eq{"raw_article_id": rawArticleID})
}

func (r *PostRepo) ListPosts(ctx context.Context, status string, limit int) ([]GeneratedPost, error) {
	query := builder.Select(postColumns...).From("generated_posts").OrderBy("created_at DESC")
	if status != "" {
		query = query.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build posts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []GeneratedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func (r *PostRepo) CountPostsByStatus(ctx context.Context, status string) (int, error) {
	query, args, err := builder.Select("COUNT(*)").From("generated_posts").Where(sq.Eq{"status": status}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// UpdatePostContent replaces the English fields and resets the post to draft.
func (r *PostRepo) UpdatePostContent(ctx context.Context, id string, content PostContent, generatedBy string) error {
	hashtags, err := encodeHashtags(content.Hashtags)
	if err != nil {
		return err
	}

	query := builder.Update("generated_posts").
		Set("headline", content.Headline).
		Set("summary", content.Summary).
		Set("body", content.Body).
		Set("hashtags", hashtags).
		Set("attribution", content.Attribution).
		Set("generated_by", generatedBy).
		Set("status", PostStatusDraft).
		Set("updated_at", time.Now().UTC())

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return execUpdate(ctx, tx, query, id, "update post content")
	})
}

func (r *PostRepo) UpdatePost(ctx context.Context, id string, update PostUpdate) (*GeneratedPost, error) {
	query := builder.Update("generated_posts").Set("updated_at", time.Now().UTC())
	if update.Headline != nil {
		query = query.Set("headline", *update.Headline)
	}
	if update.Summary != nil {
		query = query.Set("summary", *update.Summary)
	}
	if update.Body != nil {
		query = query.Set("body", *update.Body)
	}
	if update.Hashtags != nil {
		cleaned := cleanHashtags(*update.Hashtags)
		if len(cleaned) > MaxHashtags {
			return nil, fmt.Errorf("%w: at most %d hashtags allowed, got %d", errs.ErrInvalidInput, MaxHashtags, len(cleaned))
		}
		hashtags, err := encodeHashtags(cleaned)
		if err != nil {
			return nil, err
		}
		query = query.Set("hashtags", hashtags)
	}
	if update.Attribution != nil {
		query = query.Set("attribution", *update.Attribution)
	}
	if update.Status != nil {
		if !slices.Contains(PostStatuses, *update.Status) {
			return nil, fmt.Errorf("%w: unknown post status %q", errs.ErrInvalidInput, *update.Status)
		}
		query = query.Set("status", *update.Status)
	}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		return execUpdate(ctx, tx, query, id, "update post")
	})
	if err != nil {
		return nil, err
	}

	return r.GetPost(ctx, id)
}

// SaveTranslation persists every translated field in a single statement.
func (r *PostRepo) SaveTranslation(ctx context.Context, id string, translation PostTranslation) error {
	hashtags, err := encodeHashtags(translation.Hashtags)
	if err != nil {
		return err
	}

	translatedAt := time.Now().UTC()
	if translation.TranslatedAt != nil {
		translatedAt = translation.TranslatedAt.UTC()
	}

	query := builder.Update("generated_posts").
		Set("headline_tr", translation.Headline).
		Set("summary_tr", translation.Summary).
		Set("body_tr", translation.Body).
		Set("hashtags_tr", hashtags).
		Set("attribution_tr", translation.Attribution).
		Set("translated_language", translation.Language).
		Set("translated_at", translatedAt).
		Set("updated_at", time.Now().UTC())

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return execUpdate(ctx, tx, query, id, "save post translation")
	})
}

func execUpdate(ctx context.Context, tx *sql.Tx, query sq.UpdateBuilder, id string, action string) error {
	sqlQuery, args, err := query.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", action, err)
	}

	result, err := tx.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: post %s", errs.ErrNotFound, id)
	}
	return nil
}

func (r *PostRepo) get(ctx context.Context, where sq.Eq) (*GeneratedPost, error) {
	query, args, err := builder.Select(postColumns...).From("generated_posts").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build post query: %w", err)
	}

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func scanPost(row rowScanner) (*GeneratedPost, error) {
	var post GeneratedPost
	var hashtags, hashtagsTr string
	var translatedAt sql.NullTime

	err := row.Scan(
		&post.ID, &post.RawArticleID, &post.Category, &post.Headline, &post.Summary, &post.Body,
		&hashtags, &post.Attribution,
		&post.Translation.Headline, &post.Translation.Summary, &post.Translation.Body,
		&hashtagsTr, &post.Translation.Attribution, &post.Translation.Language, &translatedAt,
		&post.Status, &post.GeneratedBy, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if post.Hashtags, err = decodeHashtags(hashtags); err != nil {
		return nil, err
	}
	if post.Translation.Hashtags, err = decodeHashtags(hashtagsTr); err != nil {
		return nil, err
	}
	if translatedAt.Valid {
		post.Translation.TranslatedAt = &translatedAt.Time
	}

	return &post, nil
}

// cleanHashtags drops blank and repeated tags, keeping the first spelling.
func cleanHashtags(hashtags []string) []string {
	cleaned := make([]string, 0, len(hashtags))
	seen := make(map[string]bool, len(hashtags))
	for _, tag := range hashtags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(strings.TrimPrefix(tag, "#"))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

func encodeHashtags(hashtags []string) (string, error) {
	if hashtags == nil {
		hashtags = []string{}
	}
	data, err := json.Marshal(hashtags)
	if err != nil {
		return "", fmt.Errorf("failed to encode hashtags: %w", err)
	}
	return string(data), nil
}

func decodeHashtags(data string) ([]string, error) {
	var hashtags []string
	if data == "" {
		return hashtags, nil
	}
	if err := json.Unmarshal([]byte(data), &hashtags); err != nil {
		return nil, fmt.Errorf("failed to decode hashtags: %w", err)
	}
	return hashtags, nil
}
