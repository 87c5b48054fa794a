package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/errs"
)

var articleColumns = []string{
	"id", "canonical_id", "COALESCE(source_id, '')", "source_name", "category", "title", "url",
	"author", "description", "content", "image_url", "language", "published_at",
	"status", "error_message", "created_at", "updated_at",
}

// ArticleRepo handles database operations for raw articles
type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// UpsertRawArticle stores the article on first sight of its canonical id and
// only refreshes updated_at afterwards. It returns the stored id and whether
// a new row was inserted.
func (r *ArticleRepo) UpsertRawArticle(ctx context.Context, article RawArticle) (string, bool, error) {
	if article.CanonicalID == "" {
		return "", false, fmt.Errorf("%w: canonical id is required", errs.ErrInvalidInput)
	}

	now := time.Now().UTC()
	id := uuid.NewString()

	var sourceID any
	if article.SourceID != "" {
		sourceID = article.SourceID
	}

	insert, insertArgs, err := builder.Insert("raw_articles").
		Columns(
			"id", "canonical_id", "source_id", "source_name", "category", "title", "url",
			"author", "description", "content", "image_url", "language", "published_at",
			"status", "created_at", "updated_at",
		).
		Values(
			id, article.CanonicalID, sourceID, article.SourceName, defaultString(article.Category, "global"), article.Title, article.URL,
			article.Author, article.Description, article.Content, article.ImageURL, defaultString(article.Language, "en"), article.PublishedAt,
			ArticleStatusQueued, now, now,
		).
		Suffix("ON CONFLICT(canonical_id) DO NOTHING").
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("failed to build article insert: %w", err)
	}

	inserted := false
	err = r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, insert, insertArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert article: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 1 {
			inserted = true
			return nil
		}

		if _, err := tx.ExecContext(ctx, "UPDATE raw_articles SET updated_at = ? WHERE canonical_id = ?", now, article.CanonicalID); err != nil {
			return fmt.Errorf("failed to touch article: %w", err)
		}
		if err := tx.QueryRowContext(ctx, "SELECT id FROM raw_articles WHERE canonical_id = ?", article.CanonicalID).Scan(&id); err != nil {
			return fmt.Errorf("failed to load existing article id: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return id, inserted, nil
}

func (r *ArticleRepo) GetRawArticle(ctx context.Context, id string) (*RawArticle, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *ArticleRepo) GetRawArticleByCanonicalID(ctx context.Context, canonicalID string) (*RawArticle, error) {
	return r.get(ctx, sq.Eq{"canonical_id": canonicalID})
}

// ListRawArticles returns the newest articles, optionally restricted to status.
func (r *ArticleRepo) ListRawArticles(ctx context.Context, status string, limit int) ([]RawArticle, error) {
	query := builder.Select(articleColumns...).From("raw_articles").OrderBy("created_at DESC")
	if status != "" {
		query = query.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.list(ctx, query)
}

// ListUnprocessedArticles returns queued articles without a generated post,
// oldest first.
func (r *ArticleRepo) ListUnprocessedArticles(ctx context.Context, limit int) ([]RawArticle, error) {
	columns := make([]string, len(articleColumns))
	for i, column := range articleColumns {
		if column == "COALESCE(source_id, '')" {
			columns[i] = "COALESCE(r.source_id, '')"
			continue
		}
		columns[i] = "r." + column
	}

	query := unprocessedQuery(builder.Select(columns...)).OrderBy("r.created_at ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return r.list(ctx, query)
}

func (r *ArticleRepo) CountArticlesByStatus(ctx context.Context, status string) (int, error) {
	return r.count(ctx, builder.Select("COUNT(*)").From("raw_articles").Where(sq.Eq{"status": status}))
}

func (r *ArticleRepo) CountUnprocessedArticles(ctx context.Context) (int, error) {
	return r.count(ctx, unprocessedQuery(builder.Select("COUNT(*)")))
}

// UpdateArticleContent writes only the content column so background backfill
// never clobbers other fields.
func (r *ArticleRepo) UpdateArticleContent(ctx context.Context, id string, content string) error {
	return r.update(ctx, id, builder.Update("raw_articles").Set("content", content), "update article content")
}

func (r *ArticleRepo) UpdateArticleStatus(ctx context.Context, id string, status string, errorMessage string) error {
	query := builder.Update("raw_articles").
		Set("status", status).
		Set("error_message", errorMessage).
		Set("updated_at", time.Now().UTC())
	return r.update(ctx, id, query, "update article status")
}

func unprocessedQuery(query sq.SelectBuilder) sq.SelectBuilder {
	return query.From("raw_articles r").
		LeftJoin("generated_posts p ON p.raw_article_id = r.id").
		Where(sq.Eq{"r.status": ArticleStatusQueued}).
		Where("p.id IS NULL")
}

func (r *ArticleRepo) update(ctx context.Context, id string, query sq.UpdateBuilder, action string) error {
	sqlQuery, args, err := query.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", action, err)
	}

	result, err := r.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: article %s", errs.ErrNotFound, id)
	}
	return nil
}

func (r *ArticleRepo) count(ctx context.Context, query sq.SelectBuilder) (int, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) get(ctx context.Context, where sq.Eq) (*RawArticle, error) {
	query, args, err := builder.Select(articleColumns...).From("raw_articles").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

func (r *ArticleRepo) list(ctx context.Context, query sq.SelectBuilder) ([]RawArticle, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build articles query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []RawArticle
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func scanArticle(row rowScanner) (*RawArticle, error) {
	var article RawArticle
	var publishedAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.CanonicalID, &article.SourceID, &article.SourceName, &article.Category,
		&article.Title, &article.URL, &article.Author, &article.Description, &article.Content,
		&article.ImageURL, &article.Language, &publishedAt, &article.Status, &article.ErrorMessage,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	return &article, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
