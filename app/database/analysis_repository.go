package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AnalysisRepository handles database operations for enrichment artifacts:
// security analyses, detailed analyses, and the flattened IOC rows.
type AnalysisRepository struct {
	db DBTX
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// WithTx returns a repository view bound to the given transaction.
func (r *AnalysisRepository) WithTx(tx *sql.Tx) *AnalysisRepository {
	return &AnalysisRepository{db: tx}
}

// UpsertSecurityAnalysis creates or overwrites the security analysis for
// an entry. Re-running replaces prior content and refreshes the timestamp.
func (r *AnalysisRepository) UpsertSecurityAnalysis(ctx context.Context, entryID int64, iocsJSON, sigmaRule string, analyzedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_analyses (entry_id, iocs, sigma_rule, analyzed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entry_id) DO UPDATE SET
			iocs = excluded.iocs,
			sigma_rule = excluded.sigma_rule,
			analyzed_at = excluded.analyzed_at
	`, entryID, iocsJSON, sigmaRule, analyzedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert security analysis: %w", err)
	}
	return nil
}

// GetSecurityAnalysis retrieves the security analysis for an entry,
// returning nil when absent.
func (r *AnalysisRepository) GetSecurityAnalysis(ctx context.Context, entryID int64) (*SecurityAnalysis, error) {
	var analysis SecurityAnalysis
	err := r.db.QueryRowContext(ctx, `
		SELECT id, entry_id, iocs, sigma_rule, analyzed_at
		FROM security_analyses
		WHERE entry_id = ?
	`, entryID).Scan(&analysis.ID, &analysis.EntryID, &analysis.IOCs,
		&analysis.SigmaRule, &analysis.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security analysis: %w", err)
	}
	return &analysis, nil
}

// UpsertDetailedAnalysis creates or overwrites the detailed analysis for
// an entry.
func (r *AnalysisRepository) UpsertDetailedAnalysis(ctx context.Context, entryID int64, content string, analyzedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO detailed_analyses (entry_id, content, analyzed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (entry_id) DO UPDATE SET
			content = excluded.content,
			analyzed_at = excluded.analyzed_at
	`, entryID, content, analyzedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert detailed analysis: %w", err)
	}
	return nil
}

// GetDetailedAnalysis retrieves the detailed analysis for an entry,
// returning nil when absent.
func (r *AnalysisRepository) GetDetailedAnalysis(ctx context.Context, entryID int64) (*DetailedAnalysis, error) {
	var analysis DetailedAnalysis
	err := r.db.QueryRowContext(ctx, `
		SELECT id, entry_id, content, analyzed_at
		FROM detailed_analyses
		WHERE entry_id = ?
	`, entryID).Scan(&analysis.ID, &analysis.EntryID, &analysis.Content,
		&analysis.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detailed analysis: %w", err)
	}
	return &analysis, nil
}

// ReplaceIOCs swaps the flattened IOC rows for an entry with the given
// set. Re-running an analysis overwrites, never appends.
func (r *AnalysisRepository) ReplaceIOCs(ctx context.Context, entryID int64, iocs []IOC) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM iocs WHERE entry_id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete prior IOCs: %w", err)
	}

	for _, ioc := range iocs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO iocs (entry_id, type, value, context, confidence, discovered_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, entryID, ioc.Type, ioc.Value, ioc.Context, ioc.Confidence, ioc.DiscoveredAt)
		if err != nil {
			return fmt.Errorf("failed to insert IOC: %w", err)
		}
	}

	return nil
}

// GetAllIOCs returns every stored IOC joined to its article title, newest
// discoveries first.
func (r *AnalysisRepository) GetAllIOCs(ctx context.Context) ([]IOCRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.entry_id, e.title, i.type, i.value, i.context, i.confidence, i.discovered_at
		FROM iocs i
		JOIN entries e ON e.id = i.entry_id
		ORDER BY i.discovered_at DESC, i.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get IOCs: %w", err)
	}
	defer rows.Close()

	var records []IOCRecord
	for rows.Next() {
		var rec IOCRecord
		err := rows.Scan(&rec.EntryID, &rec.ArticleTitle, &rec.Type, &rec.Value,
			&rec.Context, &rec.Confidence, &rec.DiscoveredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan IOC row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating IOC rows: %w", err)
	}

	return records, nil
}
