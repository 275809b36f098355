package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"
	"scanner-registry/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

func newTestCatalog(t *testing.T) (*Catalog, repository.Repositories) {
	t.Helper()
	repos := repository.NewMemory()
	return NewCatalog(repos.ScannerRecords, nil), repos
}

func seedRecords(t *testing.T, cat *Catalog, serials ...string) {
	t.Helper()
	for _, sn := range serials {
		_, _, err := cat.Create(context.Background(), CreateRequest{
			SerialNumber: strPtr(sn),
			Status:       strPtr("Active"),
		})
		require.NoError(t, err)
	}
}

func pageIDs(p *Page) []uint {
	out := make([]uint, 0, len(p.Data))
	for _, r := range p.Data {
		out = append(out, r.ID)
	}
	return out
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Equal(t, field, ve.Field)
}

func TestCatalog_SevenRecordsFivePerPage(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	seedRecords(t, cat, "S1", "S2", "S3", "S4", "S5", "S6", "S7")

	first, err := cat.List(ctx, ListQuery{PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, pageIDs(first))
	assert.Nil(t, first.PrevCursor)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, 5, first.PerPage)

	second, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: *first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []uint{6, 7}, pageIDs(second))
	assert.Nil(t, second.NextCursor)
	require.NotNil(t, second.PrevCursor)

	back, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: *second.PrevCursor})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, pageIDs(back))
	assert.Nil(t, back.PrevCursor)
	require.NotNil(t, back.NextCursor)
}

func TestCatalog_BackwardPageInTheMiddleHasBothCursors(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		seedRecords(t, cat, fmt.Sprintf("SN-%02d", i))
	}

	cursor := pagination.Cursor{ID: 11, Direction: pagination.Backward}.Encode()
	page, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: cursor})

	require.NoError(t, err)
	assert.Equal(t, []uint{6, 7, 8, 9, 10}, pageIDs(page))
	assert.NotNil(t, page.PrevCursor)
	assert.NotNil(t, page.NextCursor)
}

func TestCatalog_ForwardWalkYieldsFilteredSetExactlyOnce(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	var want []uint
	for i := 1; i <= 23; i++ {
		sn := fmt.Sprintf("OTHER-%d", i)
		if i%2 == 1 {
			sn = fmt.Sprintf("kodak-%d", i)
			want = append(want, uint(i))
		}
		seedRecords(t, cat, sn)
	}

	var got []uint
	q := ListQuery{Search: "KODAK", PerPage: 5}
	for pages := 0; ; pages++ {
		require.Less(t, pages, 10)
		page, err := cat.List(ctx, q)
		require.NoError(t, err)
		got = append(got, pageIDs(page)...)
		if page.NextCursor == nil {
			break
		}
		q.Cursor = *page.NextCursor
	}

	assert.Equal(t, want, got)
}

func TestCatalog_SearchMatchesFieldsAndBranch(t *testing.T) {
	cat, repos := newTestCatalog(t)
	ctx := context.Background()
	main := &models.Branch{BranchName: "Main Street", BranchCode: "MN01"}
	require.NoError(t, repos.Branches.Create(ctx, main))

	_, _, err := cat.Create(ctx, CreateRequest{BranchID: uintPtr(main.ID), SerialNumber: strPtr("AAA")})
	require.NoError(t, err)
	_, _, err = cat.Create(ctx, CreateRequest{SerialNumber: strPtr("BBB"), Remarks: strPtr("screen cracked")})
	require.NoError(t, err)
	_, _, err = cat.Create(ctx, CreateRequest{SerialNumber: strPtr("CCC"), Model: strPtr("fi-7160"), Status: strPtr("For Repair")})
	require.NoError(t, err)
	_, _, err = cat.Create(ctx, CreateRequest{SerialNumber: strPtr("50% off")})
	require.NoError(t, err)

	cases := []struct {
		search string
		want   []uint
	}{
		{"", []uint{1, 2, 3, 4}},
		{"mn01", []uint{1}},
		{"main street", []uint{1}},
		{"CRACKED", []uint{2}},
		{"FI-71", []uint{3}},
		{"repair", []uint{3}},
		{"%", []uint{4}},
		{"nothing-like-this", []uint{}},
	}
	for _, tc := range cases {
		t.Run(tc.search, func(t *testing.T) {
			page, err := cat.List(ctx, ListQuery{Search: tc.search})
			require.NoError(t, err)
			assert.Equal(t, tc.want, pageIDs(page))
		})
	}

	page, err := cat.List(ctx, ListQuery{Search: "mn01"})
	require.NoError(t, err)
	require.NotNil(t, page.Data[0].Branch)
	assert.Equal(t, "Main Street", page.Data[0].Branch.BranchName)
}

func TestCatalog_EmptyResultHasNoCursors(t *testing.T) {
	cat, _ := newTestCatalog(t)

	page, err := cat.List(context.Background(), ListQuery{})

	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, pagination.DefaultPerPage, page.PerPage)
	assert.Nil(t, page.PrevCursor)
	assert.Nil(t, page.NextCursor)
}

func TestCatalog_EmptyPagePastTheTailLeadsBack(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	seedRecords(t, cat, "S1", "S2", "S3", "S4", "S5", "S6", "S7")

	first, err := cat.List(ctx, ListQuery{PerPage: 5})
	require.NoError(t, err)
	require.NotNil(t, first.NextCursor)
	for _, id := range []uint{6, 7} {
		_, err := cat.Delete(ctx, id)
		require.NoError(t, err)
	}

	empty, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: *first.NextCursor})
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Nil(t, empty.NextCursor)
	require.NotNil(t, empty.PrevCursor)

	back, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: *empty.PrevCursor})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, pageIDs(back))
	assert.Nil(t, back.PrevCursor)
	assert.Nil(t, back.NextCursor)
}

func TestCatalog_EmptyPageBeforeTheHeadLeadsForward(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	seedRecords(t, cat, "S1", "S2", "S3", "S4")
	for _, id := range []uint{1, 2} {
		_, err := cat.Delete(ctx, id)
		require.NoError(t, err)
	}

	cursor := pagination.Cursor{ID: 3, Direction: pagination.Backward}.Encode()
	empty, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: cursor})
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Nil(t, empty.PrevCursor)
	require.NotNil(t, empty.NextCursor)

	next, err := cat.List(ctx, ListQuery{PerPage: 5, Cursor: *empty.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 4}, pageIDs(next))
}

func TestCatalog_EmptyPageWithNothingBehindHasNoCursors(t *testing.T) {
	cat, _ := newTestCatalog(t)

	cursor := pagination.Cursor{ID: 9, Direction: pagination.Forward}.Encode()
	page, err := cat.List(context.Background(), ListQuery{Cursor: cursor})

	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Nil(t, page.PrevCursor)
	assert.Nil(t, page.NextCursor)
}

func TestCatalog_CursorFromAnotherFilterResumesAtPosition(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		sn := "even"
		if i%2 == 1 {
			sn = "odd"
		}
		seedRecords(t, cat, sn)
	}

	stale := pagination.Cursor{ID: 4, Direction: pagination.Forward}.Encode()
	page, err := cat.List(ctx, ListQuery{Search: "odd", PerPage: 5, Cursor: stale})

	require.NoError(t, err)
	assert.Equal(t, []uint{5, 7, 9}, pageIDs(page))
	assert.NotNil(t, page.PrevCursor)
	assert.Nil(t, page.NextCursor)
}

func TestCatalog_RejectsBadPerPageAndCursor(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := cat.List(ctx, ListQuery{PerPage: 7})
	requireValidation(t, err, "per_page")

	_, err = cat.List(ctx, ListQuery{Cursor: "not a cursor!"})
	requireValidation(t, err, "cursor")

	for _, n := range pagination.AllowedPerPage {
		_, err := cat.List(ctx, ListQuery{PerPage: n})
		assert.NoError(t, err, "per_page %d", n)
	}
}

func TestCatalog_CreateValidatesFields(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	_, _, err := cat.Create(ctx, CreateRequest{})
	requireValidation(t, err, "")

	_, _, err = cat.Create(ctx, CreateRequest{SerialNumber: strPtr("  ")})
	requireValidation(t, err, "")

	_, _, err = cat.Create(ctx, CreateRequest{OfficeType: strPtr("WAREHOUSE")})
	requireValidation(t, err, "office_type")

	_, _, err = cat.Create(ctx, CreateRequest{Status: strPtr("Broken")})
	requireValidation(t, err, "status")

	_, _, err = cat.Create(ctx, CreateRequest{BranchID: uintPtr(99)})
	requireValidation(t, err, "branch_id")
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "The selected branch id is invalid.", ve.Message)
}

func TestCatalog_CreateNormalizesLegacySpellings(t *testing.T) {
	cat, _ := newTestCatalog(t)

	rec, msg, err := cat.Create(context.Background(), CreateRequest{
		OfficeType:   strPtr("ho"),
		Status:       strPtr("Deffective"),
		SerialNumber: strPtr(" SN-9 "),
	})

	require.NoError(t, err)
	assert.Equal(t, "Scanner record created successfully.", msg)
	assert.Equal(t, models.OfficeTypeHeadOffice, rec.OfficeType)
	assert.Equal(t, models.ScannerStatusDefective, rec.Status)
	assert.Equal(t, "SN-9", rec.SerialNumber)
	assert.Nil(t, rec.Branch)
}

func TestCatalog_UpdateReplacesOnlyPresentFields(t *testing.T) {
	cat, repos := newTestCatalog(t)
	ctx := context.Background()
	main := &models.Branch{BranchName: "Main", BranchCode: "MN01"}
	require.NoError(t, repos.Branches.Create(ctx, main))
	rec, _, err := cat.Create(ctx, CreateRequest{
		BranchID:     uintPtr(main.ID),
		SerialNumber: strPtr("SN1"),
		Model:        strPtr("fi-7160"),
		Status:       strPtr("Active"),
	})
	require.NoError(t, err)

	updated, msg, err := cat.Update(ctx, rec.ID, UpdateRequest{Status: strPtr("For Repair")})
	require.NoError(t, err)
	assert.Equal(t, "Scanner record updated successfully.", msg)
	assert.Equal(t, models.ScannerStatusForRepair, updated.Status)
	assert.Equal(t, "fi-7160", updated.Model)
	require.NotNil(t, updated.Branch)
	assert.Equal(t, "MN01", updated.Branch.BranchCode)

	cleared, _, err := cat.Update(ctx, rec.ID, UpdateRequest{BranchID: OptionalID{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, cleared.BranchID)
	assert.Nil(t, cleared.Branch)
	assert.Equal(t, "SN1", cleared.SerialNumber)

	_, _, err = cat.Update(ctx, rec.ID, UpdateRequest{OfficeType: strPtr("MOON BASE")})
	requireValidation(t, err, "office_type")

	_, _, err = cat.Update(ctx, rec.ID, UpdateRequest{BranchID: OptionalID{Set: true, Value: uintPtr(404)}})
	requireValidation(t, err, "branch_id")

	_, _, err = cat.Update(ctx, 999, UpdateRequest{Model: strPtr("x")})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCatalog_UpdateClearsEnumWithEmptyValue(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	rec, _, err := cat.Create(ctx, CreateRequest{
		OfficeType:   strPtr("BRANCH"),
		SerialNumber: strPtr("SN1"),
		Status:       strPtr("Active"),
	})
	require.NoError(t, err)

	updated, _, err := cat.Update(ctx, rec.ID, UpdateRequest{Status: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, models.ScannerStatus(""), updated.Status)
	assert.Equal(t, models.OfficeTypeBranch, updated.OfficeType)

	got, err := cat.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScannerStatus(""), got.Status)
}

func TestCatalog_DeleteAndGet(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()
	seedRecords(t, cat, "SN1")

	got, err := cat.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "SN1", got.SerialNumber)

	msg, err := cat.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Scanner record deleted successfully.", msg)

	_, err = cat.Delete(ctx, 1)
	assert.True(t, apperror.IsNotFound(err))
	_, err = cat.Get(ctx, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCatalog_ExportWalksEveryPage(t *testing.T) {
	cat, _ := newTestCatalog(t)
	for i := 0; i < exportPerPage+3; i++ {
		seedRecords(t, cat, fmt.Sprintf("SN-%d", i))
	}

	data, err := cat.Export(context.Background(), "")

	require.NoError(t, err)
	rows := readExportRows(t, data)
	require.Len(t, rows, exportPerPage+4)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "SN-0", rows[1][4])
	assert.Equal(t, fmt.Sprint(exportPerPage+3), rows[len(rows)-1][0])
}
