package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/errs"
)

var sourceColumns = []string{
	"id", "name", "type", "url", "category", "enabled", "failure_count",
	"last_fetched_at", "filters", "max_items", "timeout", "created_at", "updated_at",
}

// SourceRepo handles database operations for news sources
type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) ListSources(ctx context.Context) ([]Source, error) {
	return r.list(ctx, builder.Select(sourceColumns...).From("sources").OrderBy("name"))
}

// ListEnabledSources returns enabled sources of the given type; an empty type
// returns every enabled source.
func (r *SourceRepo) ListEnabledSources(ctx context.Context, sourceType string) ([]Source, error) {
	query := builder.Select(sourceColumns...).From("sources").Where(sq.Eq{"enabled": true}).OrderBy("name")
	if sourceType != "" {
		query = query.Where(sq.Eq{"type": sourceType})
	}
	return r.list(ctx, query)
}

func (r *SourceRepo) GetSource(ctx context.Context, id string) (*Source, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *SourceRepo) GetSourceByName(ctx context.Context, name string) (*Source, error) {
	return r.get(ctx, sq.Eq{"name": name})
}

// UpsertSource inserts a source or updates the existing one with the same name.
// Failure counters and fetch timestamps survive the update.
func (r *SourceRepo) UpsertSource(ctx context.Context, source Source) (*Source, error) {
	filters, err := json.Marshal(nonNilFilters(source.Filters))
	if err != nil {
		return nil, fmt.Errorf("failed to encode source filters: %w", err)
	}

	now := time.Now().UTC()
	query, args, err := builder.Insert("sources").
		Columns("id", "name", "type", "url", "category", "enabled", "filters", "max_items", "timeout", "created_at", "updated_at").
		Values(uuid.NewString(), source.Name, source.Type, source.URL, source.Category, source.Enabled, string(filters),
			source.MaxItems, source.Timeout, now, now).
		Suffix(`ON CONFLICT(name) DO UPDATE SET
			type = excluded.type,
			url = excluded.url,
			category = excluded.category,
			enabled = excluded.enabled,
			filters = excluded.filters,
			max_items = excluded.max_items,
			timeout = excluded.timeout,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build source upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert source: %w", err)
	}

	return r.GetSourceByName(ctx, source.Name)
}

func (r *SourceRepo) UpdateSource(ctx context.Context, id string, update SourceUpdate) (*Source, error) {
	query := builder.Update("sources").Set("updated_at", time.Now().UTC()).Where(sq.Eq{"id": id})
	if update.Enabled != nil {
		query = query.Set("enabled", *update.Enabled)
	}
	if update.URL != nil {
		query = query.Set("url", *update.URL)
	}
	if update.Category != nil {
		query = query.Set("category", *update.Category)
	}
	if update.ResetFailures {
		query = query.Set("failure_count", 0)
	}

	if err := r.exec(ctx, query, "update source"); err != nil {
		return nil, err
	}

	source, err := r.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: source %s", errs.ErrNotFound, id)
	}
	return source, nil
}

func (r *SourceRepo) MarkSourceFetched(ctx context.Context, id string, fetchedAt time.Time) error {
	query := builder.Update("sources").
		Set("last_fetched_at", fetchedAt.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	return r.exec(ctx, query, "mark source fetched")
}

func (r *SourceRepo) IncrementSourceFailures(ctx context.Context, id string) error {
	query := builder.Update("sources").
		Set("failure_count", sq.Expr("failure_count + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	return r.exec(ctx, query, "increment source failures")
}

func (r *SourceRepo) exec(ctx context.Context, query sq.UpdateBuilder, action string) error {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", action, err)
	}
	if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

func (r *SourceRepo) get(ctx context.Context, where sq.Eq) (*Source, error) {
	query, args, err := builder.Select(sourceColumns...).From("sources").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build source query: %w", err)
	}

	source, err := scanSource(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return source, nil
}

func (r *SourceRepo) list(ctx context.Context, query sq.SelectBuilder) ([]Source, error) {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var lastFetchedAt sql.NullTime
	var filters string

	err := row.Scan(
		&source.ID, &source.Name, &source.Type, &source.URL, &source.Category,
		&source.Enabled, &source.FailureCount, &lastFetchedAt, &filters,
		&source.MaxItems, &source.Timeout, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastFetchedAt.Valid {
		source.LastFetchedAt = &lastFetchedAt.Time
	}
	if filters != "" {
		if err := json.Unmarshal([]byte(filters), &source.Filters); err != nil {
			return nil, fmt.Errorf("failed to decode source filters: %w", err)
		}
	}

	return &source, nil
}

func nonNilFilters(filters []SourceFilter) []SourceFilter {
	if filters == nil {
		return []SourceFilter{}
	}
	return filters
}
