package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ewintr.nl/tubescribe/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(info PostgresInfo) (*Postgres, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		info.Host, info.Port, info.User, info.Password, info.Database))
	if err != nil {
		return &Postgres{}, err
	}
	if err := db.Ping(); err != nil {
		return &Postgres{}, err
	}

	p := &Postgres{db: db}
	if err := p.migrate(pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

func (p *Postgres) migrate(wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	_, err := p.db.Exec(query)
	if err != nil {
		return err
	}

	// find existing
	rows, err := p.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}

		// register
		if _, err := p.db.Exec(`
INSERT INTO migration
(query) VALUES ($1)
`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}

type PostgresVideoRepository struct {
	postgres *Postgres
}

func NewPostgresVideoRepository(postgres *Postgres) *PostgresVideoRepository {
	return &PostgresVideoRepository{postgres: postgres}
}

func (r *PostgresVideoRepository) Save(ctx context.Context, video *model.Video) error {
	_, err := r.postgres.db.ExecContext(ctx, `
INSERT INTO video (id, user_id, youtube_url, youtube_id, title, description, thumbnail_url, duration, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
youtube_url = EXCLUDED.youtube_url,
youtube_id = EXCLUDED.youtube_id,
title = EXCLUDED.title,
description = EXCLUDED.description,
thumbnail_url = EXCLUDED.thumbnail_url,
duration = EXCLUDED.duration,
status = EXCLUDED.status,
updated_at = NOW()`,
		video.ID, video.UserID, video.YoutubeURL, string(video.YoutubeID),
		video.Title, video.Description, video.ThumbnailURL, video.Duration, string(video.Status))
	if err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	return nil
}

const videoColumns = `id, user_id, youtube_url, youtube_id, title, description, thumbnail_url, duration, status, created_at, updated_at`

func (r *PostgresVideoRepository) Find(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	row := r.postgres.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM video WHERE id = $1`, id)

	video, err := scanVideo(row)
	if err != nil {
		return nil, err
	}

	return video, nil
}

func (r *PostgresVideoRepository) FindByUser(ctx context.Context, userID string) ([]*model.Video, error) {
	rows, err := r.postgres.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM video WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

func (r *PostgresVideoRepository) FindByStatus(ctx context.Context, statuses ...model.VideoStatus) ([]*model.Video, error) {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}

	rows, err := r.postgres.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM video WHERE status = ANY($1) ORDER BY created_at`, pq.StringArray(names))
	if err != nil {
		return nil, fmt.Errorf("failed to find videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

func (r *PostgresVideoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VideoStatus) error {
	result, err := r.postgres.db.ExecContext(ctx,
		`UPDATE video SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	video := &model.Video{}
	var youtubeID, status string
	err := row.Scan(&video.ID, &video.UserID, &video.YoutubeURL, &youtubeID,
		&video.Title, &video.Description, &video.ThumbnailURL, &video.Duration,
		&status, &video.CreatedAt, &video.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}
	video.YoutubeID = model.YoutubeVideoID(youtubeID)
	video.Status = model.VideoStatus(status)

	return video, nil
}

func collectVideos(rows *sql.Rows) ([]*model.Video, error) {
	videos := []*model.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return videos, nil
}

type PostgresTranscriptRepository struct {
	postgres *Postgres
}

func NewPostgresTranscriptRepository(postgres *Postgres) *PostgresTranscriptRepository {
	return &PostgresTranscriptRepository{postgres: postgres}
}

// Save upserts on the video id, so concurrent runs for the same video never
// leave more than one authoritative transcript.
func (r *PostgresTranscriptRepository) Save(ctx context.Context, transcript *model.Transcript) error {
	_, err := r.postgres.db.ExecContext(ctx, `
INSERT INTO transcript (video_id, user_id, content, language)
VALUES ($1, $2, $3, $4)
ON CONFLICT (video_id) DO UPDATE SET
content = EXCLUDED.content,
language = EXCLUDED.language,
updated_at = NOW()`,
		transcript.VideoID, transcript.UserID, transcript.Content, transcript.Language)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	return nil
}

func (r *PostgresTranscriptRepository) FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Transcript, error) {
	transcript := &model.Transcript{}
	err := r.postgres.db.QueryRowContext(ctx, `
SELECT video_id, user_id, content, language, created_at, updated_at
FROM transcript WHERE video_id = $1`, videoID).
		Scan(&transcript.VideoID, &transcript.UserID, &transcript.Content,
			&transcript.Language, &transcript.CreatedAt, &transcript.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}

	return transcript, nil
}

type PostgresAnalysisRepository struct {
	postgres *Postgres
}

func NewPostgresAnalysisRepository(postgres *Postgres) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{postgres: postgres}
}

func (r *PostgresAnalysisRepository) Save(ctx context.Context, analysis *model.Analysis) error {
	_, err := r.postgres.db.ExecContext(ctx, `
INSERT INTO analysis (video_id, summary, key_points, sentiment, content_rating, suggested_tags)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (video_id) DO UPDATE SET
summary = EXCLUDED.summary,
key_points = EXCLUDED.key_points,
sentiment = EXCLUDED.sentiment,
content_rating = EXCLUDED.content_rating,
suggested_tags = EXCLUDED.suggested_tags,
updated_at = NOW()`,
		analysis.VideoID, analysis.Summary, pq.Array(analysis.KeyPoints),
		analysis.Sentiment, analysis.ContentRating, pq.Array(analysis.SuggestedTags))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

func (r *PostgresAnalysisRepository) FindByVideo(ctx context.Context, videoID uuid.UUID) (*model.Analysis, error) {
	analysis := &model.Analysis{}
	err := r.postgres.db.QueryRowContext(ctx, `
SELECT video_id, summary, key_points, sentiment, content_rating, suggested_tags, created_at, updated_at
FROM analysis WHERE video_id = $1`, videoID).
		Scan(&analysis.VideoID, &analysis.Summary, pq.Array(&analysis.KeyPoints),
			&analysis.Sentiment, &analysis.ContentRating, pq.Array(&analysis.SuggestedTags),
			&analysis.CreatedAt, &analysis.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}

	return analysis, nil
}
