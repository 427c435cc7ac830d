package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/course-catalog-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS course_offerings (
	term_key    TEXT NOT NULL,
	course_key  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	subject     TEXT NOT NULL,
	number      TEXT NOT NULL,
	section     TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	instructor  TEXT NOT NULL DEFAULT '',
	meeting     TEXT NOT NULL DEFAULT '',
	run_id      UUID NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (term_key, course_key)
);

CREATE INDEX IF NOT EXISTS idx_course_offerings_subject
	ON course_offerings (term_key, subject);
`

func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertCourses replaces a term's archived courses with one run's courses. Rows keep the scraped order
// through position. Offerings from earlier runs that this run did not see are deleted in the same transaction.
func (db *DB) UpsertCourses(ctx context.Context, termKey, runID string, courses []models.Course) error {
	query := `
		INSERT INTO course_offerings (
			term_key, course_key, position, subject, number, section,
			type, title, url, instructor, meeting, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (term_key, course_key) DO UPDATE SET
			position = EXCLUDED.position,
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			instructor = EXCLUDED.instructor,
			meeting = EXCLUDED.meeting,
			run_id = EXCLUDED.run_id,
			updated_at = CURRENT_TIMESTAMP`

	prune := `DELETE FROM course_offerings WHERE term_key = $1 AND run_id <> $2`

	return db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, c := range courses {
			batch.Queue(query,
				termKey, c.Key(), i, c.Subject, c.Number, c.Section,
				c.Type, c.Title, c.URL, c.Instructor, c.Time, runID,
			)
		}
		batch.Queue(prune, termKey, runID)

		results := tx.SendBatch(ctx, batch)
		for i := range courses {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to upsert course %s: %w", courses[i].Key(), err)
			}
		}

		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to prune dropped courses: %w", err)
		}

		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close batch: %w", err)
		}
		return nil
	})
}

// ListCourses returns the archived courses of a term in scraped order. An empty subject lists all of them.
func (db *DB) ListCourses(ctx context.Context, termKey, subject string) ([]models.Course, error) {
	query := `
		SELECT subject, number, section, type, title, url, instructor, meeting
		FROM course_offerings
		WHERE term_key = $1 AND ($2 = '' OR subject = $2)
		ORDER BY position, course_key`

	rows, err := db.pool.Query(ctx, query, termKey, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(
			&c.Subject, &c.Number, &c.Section, &c.Type,
			&c.Title, &c.URL, &c.Instructor, &c.Time,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}
