// Package scanner manages scanner records and their paginated listing.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/metrics"
	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"
	"scanner-registry/internal/repository"

	"go.uber.org/zap"
)

const entity = "scanner_record"

const (
	msgCreated = "Scanner record created successfully."
	msgUpdated = "Scanner record updated successfully."
	msgDeleted = "Scanner record deleted successfully."
)

// ListQuery selects one page of scanner records. PerPage 0 means the
// default page size; Cursor "" means the first page.
type ListQuery struct {
	Search  string
	PerPage int
	Cursor  string
}

// Page is one window of the id-ordered, filtered scanner records.
type Page struct {
	Data       []models.ScannerRecord `json:"data"`
	PerPage    int                    `json:"per_page"`
	PrevCursor *string                `json:"prev_cursor"`
	NextCursor *string                `json:"next_cursor"`
}

type Catalog struct {
	repo   repository.ScannerRecordRepository
	logger *zap.Logger
}

func NewCatalog(repo repository.ScannerRecordRepository, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{repo: repo, logger: logger}
}

func (c *Catalog) Create(ctx context.Context, req CreateRequest) (*models.ScannerRecord, string, error) {
	rec, err := req.toRecord()
	if err != nil {
		metrics.ObserveOperation(entity, "create", err)
		return nil, "", err
	}
	if err := c.repo.Create(ctx, rec); err != nil {
		err = apperror.AsValidation(err)
		metrics.ObserveOperation(entity, "create", err)
		return nil, "", err
	}
	metrics.ObserveOperation(entity, "create", nil)

	stored, err := c.repo.FindByID(ctx, rec.ID)
	if err != nil {
		return nil, "", err
	}
	c.logger.Info("scanner record created",
		zap.Uint("scanner_record_id", stored.ID),
		zap.String("serial_number", stored.SerialNumber),
	)
	return stored, msgCreated, nil
}

// Update applies the fields present in req to record id.
func (c *Catalog) Update(ctx context.Context, id uint, req UpdateRequest) (*models.ScannerRecord, string, error) {
	changes, err := req.toChanges()
	if err != nil {
		metrics.ObserveOperation(entity, "update", err)
		return nil, "", err
	}
	rec, err := c.repo.Update(ctx, id, changes)
	if err != nil {
		err = apperror.AsValidation(err)
		metrics.ObserveOperation(entity, "update", err)
		return nil, "", err
	}
	metrics.ObserveOperation(entity, "update", nil)
	c.logger.Info("scanner record updated",
		zap.Uint("scanner_record_id", rec.ID),
		zap.Strings("columns", columnNames(changes)),
	)
	return rec, msgUpdated, nil
}

func (c *Catalog) Delete(ctx context.Context, id uint) (string, error) {
	err := c.repo.Delete(ctx, id)
	metrics.ObserveOperation(entity, "delete", err)
	if err != nil {
		return "", err
	}
	c.logger.Info("scanner record deleted", zap.Uint("scanner_record_id", id))
	return msgDeleted, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*models.ScannerRecord, error) {
	return c.repo.FindByID(ctx, id)
}

// List returns one page of records ordered by id. A cursor issued under a
// different search resumes at the same id in the new filtered order.
func (c *Catalog) List(ctx context.Context, q ListQuery) (*Page, error) {
	start := time.Now()
	page, err := c.list(ctx, q)
	metrics.ObserveList(err, time.Since(start))
	return page, err
}

func (c *Catalog) list(ctx context.Context, q ListQuery) (*Page, error) {
	perPage, ok := pagination.ResolvePerPage(q.PerPage)
	if !ok {
		return nil, apperror.Validation("per_page", fmt.Sprintf("The per page must be one of: %s.", allowedPerPage()))
	}
	cur, err := pagination.Decode(q.Cursor)
	if err != nil {
		return nil, apperror.Validation("cursor", "The cursor is invalid.")
	}

	seek := repository.SeekQuery{
		Search:    strings.TrimSpace(q.Search),
		Direction: pagination.Forward,
		Limit:     perPage + 1,
	}
	if cur != nil {
		seek.Pivot = cur.ID
		seek.Direction = cur.Direction
	}

	rows, err := c.repo.Seek(ctx, seek)
	if err != nil {
		return nil, fmt.Errorf("seek scanner records: %w", err)
	}
	more := len(rows) > perPage
	if more {
		rows = rows[:perPage]
	}
	if seek.Direction == pagination.Backward {
		reverse(rows)
	}

	page := &Page{Data: rows, PerPage: perPage}
	if len(rows) == 0 {
		if cur != nil {
			if err := c.pointBack(ctx, page, seek.Search, cur); err != nil {
				return nil, err
			}
		}
		return page, nil
	}
	first, last := rows[0].ID, rows[len(rows)-1].ID

	var hasPrev, hasNext bool
	if seek.Direction == pagination.Forward {
		hasNext = more
		if cur != nil {
			if hasPrev, err = c.exists(ctx, seek.Search, first, pagination.Backward); err != nil {
				return nil, err
			}
		}
	} else {
		hasPrev = more
		if hasNext, err = c.exists(ctx, seek.Search, last, pagination.Forward); err != nil {
			return nil, err
		}
	}

	if hasPrev {
		token := pagination.Cursor{ID: first, Direction: pagination.Backward}.Encode()
		page.PrevCursor = &token
	}
	if hasNext {
		token := pagination.Cursor{ID: last, Direction: pagination.Forward}.Encode()
		page.NextCursor = &token
	}
	return page, nil
}

// pointBack gives an empty cursor page a way back to the rows on the other
// side of the cursor, which happens when the tail was deleted or the filter
// changed since the cursor was issued.
func (c *Catalog) pointBack(ctx context.Context, page *Page, search string, cur *pagination.Cursor) error {
	if cur.Direction == pagination.Forward {
		// Backward from cur.ID+1 includes cur.ID itself.
		ok, err := c.exists(ctx, search, cur.ID+1, pagination.Backward)
		if err != nil || !ok {
			return err
		}
		token := pagination.Cursor{ID: cur.ID + 1, Direction: pagination.Backward}.Encode()
		page.PrevCursor = &token
		return nil
	}

	// Forward from 0 would be the first page, which has no cursor.
	if cur.ID <= 1 {
		return nil
	}
	ok, err := c.exists(ctx, search, cur.ID-1, pagination.Forward)
	if err != nil || !ok {
		return err
	}
	token := pagination.Cursor{ID: cur.ID - 1, Direction: pagination.Forward}.Encode()
	page.NextCursor = &token
	return nil
}

// exists reports whether any matching record lies beyond pivot in dir.
func (c *Catalog) exists(ctx context.Context, search string, pivot uint, dir pagination.Direction) (bool, error) {
	rows, err := c.repo.Seek(ctx, repository.SeekQuery{
		Search:    search,
		Pivot:     pivot,
		Direction: dir,
		Limit:     1,
	})
	if err != nil {
		return false, fmt.Errorf("look ahead in scanner records: %w", err)
	}
	return len(rows) > 0, nil
}

// Options lists the accepted office types and statuses for record forms.
func (c *Catalog) Options() map[string]interface{} {
	return map[string]interface{}{
		"office_types": models.OfficeTypes,
		"statuses":     models.ScannerStatuses,
		"per_page":     pagination.AllowedPerPage,
	}
}

func reverse(rows []models.ScannerRecord) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func allowedPerPage() string {
	parts := make([]string, 0, len(pagination.AllowedPerPage))
	for _, n := range pagination.AllowedPerPage {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ", ")
}

func columnNames(changes models.ScannerRecordChanges) []string {
	cols := changes.Columns()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	return names
}
