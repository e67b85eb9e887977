package service

import (
	"context"
	"math"
	"log/slog"
	"strings"
	"time"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Log records an admin action. A failed write is logged and swallowed so it
// never fails the request that triggered it.
func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, before any, after any, errText string) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Before:     before,
		After:      after,
		Error:      errText,
	}

	if err := s.store.Log(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to write audit entry", "action", action, "resource", resource, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}
	if err := checkPage(query.Page, query.Limit); err != nil {
		return nil, model.Meta{}, err
	}

	from, err := normalizeAuditTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}
	to, err := normalizeAuditTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}
	query.From = from
	query.To = to

	items, total, err := s.store.Query(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	return items, pageMeta(query.Page, query.Limit, total), nil
}

func normalizeAuditTime(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	value, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return "", err
	}

	return value.UTC().Format(time.RFC3339Nano), nil
}

// maxPageOffset caps the row offset a page request can reach.
const maxPageOffset = math.MaxInt32

// checkPage rejects pages whose offset would overflow. Expects page >= 1 and
// limit > 0.
func checkPage(page int, limit int) error {
	if page-1 > maxPageOffset/limit {
		return apierror.BadRequest("page is out of range", "page")
	}
	return nil
}

func pageMeta(page int, limit int, total int) model.Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
