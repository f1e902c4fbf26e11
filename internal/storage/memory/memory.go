package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
)

// entryKey tracks ordering for entries per business: sorted asc by (Date, ID)
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// seqKey identifies a voucher number sequence.
type seqKey struct {
	BusinessID uuid.UUID
	TypeID     uuid.UUID
	YearID     uuid.UUID
}

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services and the API. It is guarded by an RWMutex; writes that
// span several maps (posting, voucher delete) happen under one lock, which
// gives the same atomicity the Postgres store gets from a transaction.
type Store struct {
	mu              sync.RWMutex
	businesses      map[uuid.UUID]books.Business
	years           map[uuid.UUID]books.FinancialYear
	groups          map[uuid.UUID]books.AccountGroup
	accounts        map[uuid.UUID]books.Account
	voucherTypes    map[uuid.UUID]books.VoucherType
	costCenters     map[uuid.UUID]books.CostCenter
	vouchers        map[uuid.UUID]books.Voucher
	entries         map[uuid.UUID]books.JournalEntry
	reconciliations map[uuid.UUID]books.Reconciliation
	// Per-business sorted index of entries for ordered scans
	entryKeysByBusiness map[uuid.UUID][]entryKey
	entriesByVoucher    map[uuid.UUID][]uuid.UUID
	sequences           map[seqKey]int
}

// New constructs an empty in-memory store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.businesses = make(map[uuid.UUID]books.Business)
	s.years = make(map[uuid.UUID]books.FinancialYear)
	s.groups = make(map[uuid.UUID]books.AccountGroup)
	s.accounts = make(map[uuid.UUID]books.Account)
	s.voucherTypes = make(map[uuid.UUID]books.VoucherType)
	s.costCenters = make(map[uuid.UUID]books.CostCenter)
	s.vouchers = make(map[uuid.UUID]books.Voucher)
	s.entries = make(map[uuid.UUID]books.JournalEntry)
	s.reconciliations = make(map[uuid.UUID]books.Reconciliation)
	s.entryKeysByBusiness = make(map[uuid.UUID][]entryKey)
	s.entriesByVoucher = make(map[uuid.UUID][]uuid.UUID)
	s.sequences = make(map[seqKey]int)
}

// Reset clears all data. Test helper.
func (s *Store) Reset() { s.mu.Lock(); s.reset(); s.mu.Unlock() }

// Seed helpers for local dev/tests.
func (s *Store) SeedBusiness(b books.Business) { s.mu.Lock(); s.businesses[b.ID] = b; s.mu.Unlock() }
func (s *Store) SeedFinancialYear(y books.FinancialYear) {
	s.mu.Lock()
	s.years[y.ID] = y
	s.mu.Unlock()
}
func (s *Store) SeedGroup(g books.AccountGroup) { s.mu.Lock(); s.groups[g.ID] = g; s.mu.Unlock() }
func (s *Store) SeedAccount(a books.Account)    { s.mu.Lock(); s.accounts[a.ID] = a; s.mu.Unlock() }
func (s *Store) SeedVoucherType(t books.VoucherType) {
	s.mu.Lock()
	s.voucherTypes[t.ID] = t
	s.mu.Unlock()
}
func (s *Store) SeedCostCenter(c books.CostCenter) {
	s.mu.Lock()
	s.costCenters[c.ID] = c
	s.mu.Unlock()
}

// --- Business / financial year reads ---

// Business returns a tenant by id.
func (s *Store) Business(_ context.Context, businessID uuid.UUID) (books.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[businessID]
	if !ok {
		return books.Business{}, errs.ErrNotFound
	}
	return b, nil
}

// FinancialYear returns one year scoped to the business.
func (s *Store) FinancialYear(_ context.Context, scope books.Scope, yearID uuid.UUID) (books.FinancialYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.years[yearID]
	if !ok || y.BusinessID != scope.BusinessID {
		return books.FinancialYear{}, errs.ErrNotFound
	}
	return y, nil
}

// ListFinancialYears returns the business's years ordered by start date.
func (s *Store) ListFinancialYears(_ context.Context, scope books.Scope) ([]books.FinancialYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.FinancialYear, 0)
	for _, y := range s.years {
		if y.BusinessID == scope.BusinessID {
			out = append(out, y)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// CreateFinancialYear persists a new year.
func (s *Store) CreateFinancialYear(_ context.Context, y books.FinancialYear) (books.FinancialYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[y.ID] = y
	return y, nil
}

// UpdateFinancialYear persists changes (lock flag).
func (s *Store) UpdateFinancialYear(_ context.Context, y books.FinancialYear) (books.FinancialYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.years[y.ID]; !ok {
		return books.FinancialYear{}, errs.ErrNotFound
	}
	s.years[y.ID] = y
	return y, nil
}

// --- Account group reads/writes ---

// Group returns one account group scoped to the business.
func (s *Store) Group(_ context.Context, scope books.Scope, groupID uuid.UUID) (books.AccountGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok || g.BusinessID != scope.BusinessID {
		return books.AccountGroup{}, errs.ErrNotFound
	}
	return g, nil
}

// ListGroups returns all account groups of the business.
func (s *Store) ListGroups(_ context.Context, scope books.Scope) ([]books.AccountGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.AccountGroup, 0)
	for _, g := range s.groups {
		if g.BusinessID == scope.BusinessID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// CreateGroup persists a new account group.
func (s *Store) CreateGroup(_ context.Context, g books.AccountGroup) (books.AccountGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
	return g, nil
}

// --- Cost center reads/writes ---

// ListCostCenters returns all cost centers of the business.
func (s *Store) ListCostCenters(_ context.Context, scope books.Scope) ([]books.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.CostCenter, 0)
	for _, c := range s.costCenters {
		if c.BusinessID == scope.BusinessID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// CreateCostCenter persists a new cost center.
func (s *Store) CreateCostCenter(_ context.Context, c books.CostCenter) (books.CostCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costCenters[c.ID] = c
	return c, nil
}

// --- Account reads/writes ---

// Account returns a business's account by ID.
func (s *Store) Account(_ context.Context, scope books.Scope, accountID uuid.UUID) (books.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.BusinessID != scope.BusinessID {
		return books.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// AccountsByIDs returns accounts filtered by IDs, keyed by id. Unknown ids
// are simply absent so callers can detect orphan references.
func (s *Store) AccountsByIDs(_ context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]books.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok && a.BusinessID == scope.BusinessID {
			out[id] = a
		}
	}
	return out, nil
}

// ListAccounts returns all accounts for a business ordered by code.
func (s *Store) ListAccounts(_ context.Context, scope books.Scope) ([]books.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.Account, 0)
	for _, a := range s.accounts {
		if a.BusinessID == scope.BusinessID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// CreateAccount persists a new account.
func (s *Store) CreateAccount(_ context.Context, a books.Account) (books.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount persists changes to an account.
func (s *Store) UpdateAccount(_ context.Context, a books.Account) (books.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return books.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// --- Voucher type reads/writes ---

// VoucherType returns one voucher type scoped to the business.
func (s *Store) VoucherType(_ context.Context, scope books.Scope, typeID uuid.UUID) (books.VoucherType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.voucherTypes[typeID]
	if !ok || t.BusinessID != scope.BusinessID {
		return books.VoucherType{}, errs.ErrNotFound
	}
	return t, nil
}

// ListVoucherTypes returns the business's voucher types by name.
func (s *Store) ListVoucherTypes(_ context.Context, scope books.Scope) ([]books.VoucherType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.VoucherType, 0)
	for _, t := range s.voucherTypes {
		if t.BusinessID == scope.BusinessID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateVoucherType persists a new voucher type.
func (s *Store) CreateVoucherType(_ context.Context, t books.VoucherType) (books.VoucherType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voucherTypes[t.ID] = t
	return t, nil
}

// --- Voucher reads/writes ---

// Voucher returns a voucher with its items.
func (s *Store) Voucher(_ context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vouchers[voucherID]
	if !ok || v.BusinessID != scope.BusinessID {
		return books.Voucher{}, errs.ErrNotFound
	}
	return copyVoucher(v), nil
}

// ListVouchers returns the business's vouchers ordered by (date, number).
func (s *Store) ListVouchers(_ context.Context, scope books.Scope) ([]books.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.Voucher, 0)
	for _, v := range s.vouchers {
		if v.BusinessID == scope.BusinessID {
			out = append(out, copyVoucher(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// CreateVoucher persists a voucher and its items.
func (s *Store) CreateVoucher(_ context.Context, v books.Voucher) (books.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[v.ID] = copyVoucher(v)
	return v, nil
}

// UpdateVoucher replaces a voucher and its items.
func (s *Store) UpdateVoucher(_ context.Context, v books.Voucher) (books.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vouchers[v.ID]; !ok {
		return books.Voucher{}, errs.ErrNotFound
	}
	s.vouchers[v.ID] = copyVoucher(v)
	return v, nil
}

// DeleteVoucher removes a voucher, its items and any linked entries.
func (s *Store) DeleteVoucher(_ context.Context, scope books.Scope, voucherID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[voucherID]
	if !ok || v.BusinessID != scope.BusinessID {
		return errs.ErrNotFound
	}
	s.dropVoucherEntriesLocked(voucherID, v.BusinessID)
	delete(s.vouchers, voucherID)
	return nil
}

// NextVoucherNumber allocates the next number for (type, year). The store
// lock serializes allocation, so concurrent creators never share a number.
func (s *Store) NextVoucherNumber(_ context.Context, scope books.Scope, typeID, yearID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := seqKey{BusinessID: scope.BusinessID, TypeID: typeID, YearID: yearID}
	s.sequences[k]++
	return s.sequences[k], nil
}

// --- Journal entries ---

// ReplaceVoucherEntries drops every entry linked to the voucher, inserts the
// new set and stores the voucher's posted state, all under one lock.
func (s *Store) ReplaceVoucherEntries(_ context.Context, v books.Voucher, entries []books.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vouchers[v.ID]; !ok {
		return errs.ErrNotFound
	}
	s.dropVoucherEntriesLocked(v.ID, v.BusinessID)
	for _, e := range entries {
		s.entries[e.ID] = e
		s.entriesByVoucher[v.ID] = append(s.entriesByVoucher[v.ID], e.ID)
		s.insertEntryIndexLocked(e.BusinessID, entryKey{Date: e.Date, ID: e.ID})
	}
	s.vouchers[v.ID] = copyVoucher(v)
	return nil
}

// Entries returns the business's entries matching the filter in (date, id)
// order.
func (s *Store) Entries(_ context.Context, scope books.Scope, f books.EntryFilter) ([]books.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByBusiness[scope.BusinessID]
	out := make([]books.JournalEntry, 0, len(keys))
	for _, k := range keys {
		e, ok := s.entries[k.ID]
		if !ok || e.BusinessID != scope.BusinessID {
			continue
		}
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntriesByVoucher returns the entries generated from one voucher.
func (s *Store) EntriesByVoucher(_ context.Context, scope books.Scope, voucherID uuid.UUID) ([]books.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.JournalEntry, 0)
	for _, id := range s.entriesByVoucher[voucherID] {
		if e, ok := s.entries[id]; ok && e.BusinessID == scope.BusinessID {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntriesByIDs returns entries keyed by id; unknown ids are absent.
func (s *Store) EntriesByIDs(_ context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]books.JournalEntry, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok && e.BusinessID == scope.BusinessID {
			out[id] = e
		}
	}
	return out, nil
}

// --- Reconciliations ---

// Reconciliation returns a reconciliation with its items.
func (s *Store) Reconciliation(_ context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reconciliations[reconciliationID]
	if !ok || r.BusinessID != scope.BusinessID {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	return copyReconciliation(r), nil
}

// CreateReconciliation persists a new reconciliation.
func (s *Store) CreateReconciliation(_ context.Context, r books.Reconciliation) (books.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciliations[r.ID] = copyReconciliation(r)
	return r, nil
}

// UpdateReconciliation replaces the header and item set.
func (s *Store) UpdateReconciliation(_ context.Context, r books.Reconciliation) (books.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reconciliations[r.ID]; !ok {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	s.reconciliations[r.ID] = copyReconciliation(r)
	return r, nil
}

// --- internal helpers ---

// dropVoucherEntriesLocked removes the voucher's entries from the arena and
// the sorted index. Caller holds the write lock.
func (s *Store) dropVoucherEntriesLocked(voucherID, businessID uuid.UUID) {
	ids := s.entriesByVoucher[voucherID]
	if len(ids) == 0 {
		return
	}
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(s.entries, id)
	}
	keys := s.entryKeysByBusiness[businessID]
	kept := keys[:0]
	for _, k := range keys {
		if _, gone := drop[k.ID]; !gone {
			kept = append(kept, k)
		}
	}
	s.entryKeysByBusiness[businessID] = kept
	delete(s.entriesByVoucher, voucherID)
}

// insertEntryIndexLocked inserts k into the per-business sorted index,
// keeping order asc by (Date, ID). Caller holds the write lock.
func (s *Store) insertEntryIndexLocked(businessID uuid.UUID, k entryKey) {
	keys := s.entryKeysByBusiness[businessID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeysByBusiness[businessID] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByBusiness[businessID] = keys
}

func copyVoucher(v books.Voucher) books.Voucher {
	out := v
	out.Items = make([]books.VoucherItem, len(v.Items))
	copy(out.Items, v.Items)
	out.Metadata = v.Metadata.Clone()
	return out
}

func copyReconciliation(r books.Reconciliation) books.Reconciliation {
	out := r
	out.Items = make([]books.ReconciliationItem, len(r.Items))
	copy(out.Items, r.Items)
	return out
}
