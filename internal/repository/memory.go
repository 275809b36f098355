package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"
)

// MemoryStore keeps all tables in process behind one lock, so every
// operation is trivially atomic. It backs STORAGE_DRIVER=memory and tests.
type MemoryStore struct {
	mu sync.RWMutex

	branches     map[uint]models.Branch
	records      map[uint]models.ScannerRecord
	users        map[uint]models.User
	nextBranchID uint
	nextRecordID uint
	nextUserID   uint
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		branches: map[uint]models.Branch{},
		records:  map[uint]models.ScannerRecord{},
		users:    map[uint]models.User{},
		now:      time.Now,
	}
}

// NewMemory wires every repository to a fresh MemoryStore.
func NewMemory() Repositories {
	s := NewMemoryStore()
	return s.Repositories()
}

func (s *MemoryStore) Repositories() Repositories {
	return Repositories{
		Branches:       memoryBranches{s},
		ScannerRecords: memoryScannerRecords{s},
		Users:          memoryUsers{s},
		Ping:           func(context.Context) error { return nil },
	}
}

type memoryBranches struct{ s *MemoryStore }

func (m memoryBranches) Create(_ context.Context, b *models.Branch) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.branchClash(b); err != nil {
		return err
	}
	s.nextBranchID++
	now := s.now()
	b.ID = s.nextBranchID
	b.CreatedAt = now
	b.UpdatedAt = now
	s.branches[b.ID] = *b
	return nil
}

func (m memoryBranches) Update(_ context.Context, b *models.Branch) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.branches[b.ID]
	if !ok {
		return apperror.NotFound("branch", b.ID)
	}
	if err := s.branchClash(b); err != nil {
		return err
	}
	existing.BranchName = b.BranchName
	existing.BranchCode = b.BranchCode
	existing.UpdatedAt = s.now()
	s.branches[b.ID] = existing
	*b = existing
	return nil
}

func (m memoryBranches) Delete(_ context.Context, id uint) (*models.Branch, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.branches[id]
	if !ok {
		return nil, apperror.NotFound("branch", id)
	}
	now := s.now()
	for rid, rec := range s.records {
		if rec.BranchID != nil && *rec.BranchID == id {
			rec.BranchID = nil
			rec.UpdatedAt = now
			s.records[rid] = rec
		}
	}
	delete(s.branches, id)
	return &b, nil
}

func (m memoryBranches) FindByID(_ context.Context, id uint) (*models.Branch, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.branches[id]
	if !ok {
		return nil, apperror.NotFound("branch", id)
	}
	return &b, nil
}

func (m memoryBranches) List(_ context.Context) ([]models.Branch, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, b)
	}
	sortBranches(out)
	return out, nil
}

func (m memoryBranches) ListUnassigned(_ context.Context) ([]models.Branch, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	used := map[uint]bool{}
	for _, rec := range s.records {
		if rec.BranchID != nil {
			used[*rec.BranchID] = true
		}
	}
	out := make([]models.Branch, 0, len(s.branches))
	for id, b := range s.branches {
		if !used[id] {
			out = append(out, b)
		}
	}
	sortBranches(out)
	return out, nil
}

// branchClash must be called with the lock held.
func (s *MemoryStore) branchClash(b *models.Branch) error {
	others := make([]models.Branch, 0, len(s.branches))
	for _, o := range s.branches {
		others = append(others, o)
	}
	sortBranches(others)
	return uniqueClash(others, b)
}

type memoryScannerRecords struct{ s *MemoryStore }

func (m memoryScannerRecords) Create(_ context.Context, rec *models.ScannerRecord) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.BranchID != nil {
		if _, ok := s.branches[*rec.BranchID]; !ok {
			return &apperror.ConstraintError{Kind: apperror.ConstraintForeignKey, Field: "branch_id", Err: errors.New("branch does not exist")}
		}
	}
	s.nextRecordID++
	now := s.now()
	rec.ID = s.nextRecordID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Branch = nil
	stored := *rec
	if rec.BranchID != nil {
		branchID := *rec.BranchID
		stored.BranchID = &branchID
	}
	s.records[rec.ID] = stored
	return nil
}

func (m memoryScannerRecords) Update(_ context.Context, id uint, changes models.ScannerRecordChanges) (*models.ScannerRecord, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, apperror.NotFound("scanner record", id)
	}
	if !changes.ClearBranch && changes.BranchID != nil {
		if _, ok := s.branches[*changes.BranchID]; !ok {
			return nil, &apperror.ConstraintError{Kind: apperror.ConstraintForeignKey, Field: "branch_id", Err: errors.New("branch does not exist")}
		}
	}
	if !changes.Empty() {
		changes.Apply(&rec)
		rec.UpdatedAt = s.now()
		rec.Branch = nil
		s.records[id] = rec
	}
	out := s.withBranch(rec)
	return &out, nil
}

func (m memoryScannerRecords) Delete(_ context.Context, id uint) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return apperror.NotFound("scanner record", id)
	}
	delete(s.records, id)
	return nil
}

func (m memoryScannerRecords) FindByID(_ context.Context, id uint) (*models.ScannerRecord, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, apperror.NotFound("scanner record", id)
	}
	out := s.withBranch(rec)
	return &out, nil
}

func (m memoryScannerRecords) Seek(_ context.Context, q SeekQuery) ([]models.ScannerRecord, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]models.ScannerRecord, 0, len(s.records))
	for _, rec := range s.records {
		if q.Pivot > 0 {
			if q.Direction == pagination.Backward && rec.ID >= q.Pivot {
				continue
			}
			if q.Direction == pagination.Forward && rec.ID <= q.Pivot {
				continue
			}
		}
		joined := s.withBranch(rec)
		if needle != "" && !matchesSearch(joined, needle) {
			continue
		}
		matched = append(matched, joined)
	}

	sort.Slice(matched, func(i, j int) bool {
		if q.Direction == pagination.Backward {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ID < matched[j].ID
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// withBranch must be called with the lock held.
func (s *MemoryStore) withBranch(rec models.ScannerRecord) models.ScannerRecord {
	rec.Branch = nil
	if rec.BranchID != nil {
		if b, ok := s.branches[*rec.BranchID]; ok {
			rec.Branch = &b
		}
	}
	return rec
}

func matchesSearch(rec models.ScannerRecord, needle string) bool {
	fields := []string{
		rec.SerialNumber,
		rec.Model,
		string(rec.OfficeType),
		string(rec.Status),
		rec.Remarks,
	}
	if rec.Branch != nil {
		fields = append(fields, rec.Branch.BranchName, rec.Branch.BranchCode)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, u *models.User) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertUser(u)
}

func (m memoryUsers) CreateFirstAdmin(_ context.Context, u *models.User) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.users {
		if o.Role == models.RoleAdmin {
			return ErrAdminExists
		}
	}
	u.Role = models.RoleAdmin
	return s.insertUser(u)
}

// insertUser assigns the id and timestamps. The caller holds s.mu.
func (s *MemoryStore) insertUser(u *models.User) error {
	for _, o := range s.users {
		if o.Email == u.Email {
			return &apperror.ConstraintError{Kind: apperror.ConstraintUnique, Field: "email", Err: errors.New("email exists")}
		}
	}
	s.nextUserID++
	now := s.now()
	u.ID = s.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m memoryUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m memoryUsers) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func sortBranches(bs []models.Branch) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].ID < bs[j].ID })
}
