package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-movie-catalog/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	var beforeJSON, afterJSON []byte
	var err error

	if entry.Before != nil {
		beforeJSON, err = json.Marshal(entry.Before)
		if err != nil {
			return fmt.Errorf("marshal before data: %w", err)
		}
	}
	if entry.After != nil {
		afterJSON, err = json.Marshal(entry.After)
		if err != nil {
			return fmt.Errorf("marshal after data: %w", err)
		}
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, entry.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		  status, resource, before_data, after_data, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.Action, occurredAt,
		entry.Actor.UserID, entry.Actor.Username, entry.Actor.Role, entry.Actor.IP,
		entry.Status, entry.Resource, nullableJSON(beforeJSON), nullableJSON(afterJSON), entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// auditFilter accumulates positional WHERE clauses for audit queries.
type auditFilter struct {
	clauses []string
	args    []any
}

func (f *auditFilter) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(f.args))))
}

func (f *auditFilter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.clauses, " AND ")
}

func newAuditFilter(query model.AuditQuery) *auditFilter {
	f := &auditFilter{}
	if action := strings.TrimSpace(query.Action); action != "" {
		f.add("lower(action) = lower(?)", action)
	}
	if query.ActorID > 0 {
		f.add("actor_user_id = ?", query.ActorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		f.add("lower(status) = lower(?)", status)
	}
	if from := strings.TrimSpace(query.From); from != "" {
		f.add("occurred_at >= ?::timestamptz", from)
	}
	if to := strings.TrimSpace(query.To); to != "" {
		f.add("occurred_at <= ?::timestamptz", to)
	}
	return f
}

// Query expects a normalized query (page >= 1, limit > 0). Entries come back
// newest first.
func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error) {
	filter := newAuditFilter(query)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+filter.where(), filter.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	n := len(filter.args)
	sql := fmt.Sprintf(`
		SELECT action, occurred_at, actor_user_id, actor_username, actor_role, actor_ip,
		       status, resource, before_data, after_data, error_text
		FROM audit_entries %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, filter.where(), n+1, n+2)
	args := append(filter.args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0, query.Limit)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}

func scanAuditEntry(row pgx.Row) (model.AuditEntry, error) {
	var (
		e             model.AuditEntry
		occurredAt    time.Time
		before, after []byte
	)
	if err := row.Scan(
		&e.Action, &occurredAt,
		&e.Actor.UserID, &e.Actor.Username, &e.Actor.Role, &e.Actor.IP,
		&e.Status, &e.Resource, &before, &after, &e.Error,
	); err != nil {
		return model.AuditEntry{}, fmt.Errorf("scan audit entry: %w", err)
	}

	e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
	e.Before = decodeJSON(before)
	e.After = decodeJSON(after)
	return e, nil
}

func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

func decodeJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
