package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements and
// transactions.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/dictionary"
	"github.com/veribooks/books/internal/errs"
	"github.com/veribooks/books/internal/meta"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Businesses ---

func (s *Store) Business(ctx context.Context, businessID uuid.UUID) (books.Business, error) {
	var b books.Business
	err := s.pool.QueryRow(ctx, `
		select id, name, currency from businesses where id = $1
	`, businessID).Scan(&b.ID, &b.Name, &b.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return books.Business{}, errs.ErrNotFound
	}
	if err != nil {
		return books.Business{}, err
	}
	return b, nil
}

func (s *Store) CreateBusiness(ctx context.Context, b books.Business) (books.Business, error) {
	_, err := s.pool.Exec(ctx, `
		insert into businesses (id, name, currency) values ($1,$2,$3)
	`, b.ID, b.Name, strings.ToUpper(b.Currency))
	if err != nil {
		return books.Business{}, err
	}
	return b, nil
}

// --- Financial years ---

const yearCols = `id, business_id, name, start_date, end_date, locked`

func (s *Store) FinancialYear(ctx context.Context, scope books.Scope, yearID uuid.UUID) (books.FinancialYear, error) {
	var y books.FinancialYear
	err := s.pool.QueryRow(ctx, `
		select `+yearCols+` from financial_years where id = $1 and business_id = $2
	`, yearID, scope.BusinessID).Scan(&y.ID, &y.BusinessID, &y.Name, &y.StartDate, &y.EndDate, &y.Locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return books.FinancialYear{}, errs.ErrNotFound
	}
	if err != nil {
		return books.FinancialYear{}, err
	}
	return y, nil
}

func (s *Store) ListFinancialYears(ctx context.Context, scope books.Scope) ([]books.FinancialYear, error) {
	rows, err := s.pool.Query(ctx, `
		select `+yearCols+` from financial_years where business_id = $1 order by start_date asc
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.FinancialYear, 0)
	for rows.Next() {
		var y books.FinancialYear
		if err := rows.Scan(&y.ID, &y.BusinessID, &y.Name, &y.StartDate, &y.EndDate, &y.Locked); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

func (s *Store) CreateFinancialYear(ctx context.Context, y books.FinancialYear) (books.FinancialYear, error) {
	_, err := s.pool.Exec(ctx, `
		insert into financial_years (id, business_id, name, start_date, end_date, locked)
		values ($1,$2,$3,$4,$5,$6)
	`, y.ID, y.BusinessID, y.Name, y.StartDate, y.EndDate, y.Locked)
	if err != nil {
		return books.FinancialYear{}, err
	}
	return y, nil
}

func (s *Store) UpdateFinancialYear(ctx context.Context, y books.FinancialYear) (books.FinancialYear, error) {
	ct, err := s.pool.Exec(ctx, `
		update financial_years set name=$1, start_date=$2, end_date=$3, locked=$4
		where id=$5 and business_id=$6
	`, y.Name, y.StartDate, y.EndDate, y.Locked, y.ID, y.BusinessID)
	if err != nil {
		return books.FinancialYear{}, err
	}
	if ct.RowsAffected() == 0 {
		return books.FinancialYear{}, errs.ErrNotFound
	}
	return y, nil
}

// --- Account groups ---

const groupCols = `id, business_id, name, parent_id, nature, affects_gross_profit, sequence`

func scanGroup(row pgx.Row) (books.AccountGroup, error) {
	var g books.AccountGroup
	err := row.Scan(&g.ID, &g.BusinessID, &g.Name, &g.ParentID, &g.Nature, &g.AffectsGrossProfit, &g.Sequence)
	return g, err
}

func (s *Store) Group(ctx context.Context, scope books.Scope, groupID uuid.UUID) (books.AccountGroup, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx, `
		select `+groupCols+` from account_groups where id = $1 and business_id = $2
	`, groupID, scope.BusinessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return books.AccountGroup{}, errs.ErrNotFound
	}
	if err != nil {
		return books.AccountGroup{}, err
	}
	return g, nil
}

func (s *Store) ListGroups(ctx context.Context, scope books.Scope) ([]books.AccountGroup, error) {
	rows, err := s.pool.Query(ctx, `
		select `+groupCols+` from account_groups where business_id = $1 order by sequence, id
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.AccountGroup, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CreateGroup(ctx context.Context, g books.AccountGroup) (books.AccountGroup, error) {
	_, err := s.pool.Exec(ctx, `
		insert into account_groups (id, business_id, name, parent_id, nature, affects_gross_profit, sequence)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, g.ID, g.BusinessID, g.Name, g.ParentID, g.Nature, g.AffectsGrossProfit, g.Sequence)
	if err != nil {
		return books.AccountGroup{}, err
	}
	return g, nil
}

// --- Accounts ---

const accountCols = `id, business_id, group_id, code, name, currency, opening_balance_minor, opening_side, is_bank_account, is_cash_account, metadata, active`

func scanAccount(row pgx.Row) (books.Account, error) {
	var a books.Account
	var openingMinor int64
	var mdBytes []byte
	err := row.Scan(&a.ID, &a.BusinessID, &a.GroupID, &a.Code, &a.Name, &a.Currency,
		&openingMinor, &a.OpeningSide, &a.IsBankAccount, &a.IsCashAccount, &mdBytes, &a.Active)
	if err != nil {
		return books.Account{}, err
	}
	a.OpeningBalance, _ = money.NewAmountFromMinorUnits(a.Currency, openingMinor)
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			a.Metadata = m
		}
	}
	return a, nil
}

func (s *Store) Account(ctx context.Context, scope books.Scope, accountID uuid.UUID) (books.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
		select `+accountCols+` from accounts where id = $1 and business_id = $2
	`, accountID, scope.BusinessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return books.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return books.Account{}, err
	}
	return a, nil
}

func (s *Store) AccountsByIDs(ctx context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.Account, error) {
	out := make(map[uuid.UUID]books.Account)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		select `+accountCols+` from accounts where business_id = $1 and id = any($2)
	`, scope.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (s *Store) ListAccounts(ctx context.Context, scope books.Scope) ([]books.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select `+accountCols+` from accounts where business_id = $1 order by code, name
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a books.Account) (books.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return books.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	opening, _ := a.OpeningBalance.MinorUnits()
	_, err := s.pool.Exec(ctx, `
		insert into accounts (id, business_id, group_id, code, name, currency, opening_balance_minor, opening_side, is_bank_account, is_cash_account, metadata, active)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, a.ID, a.BusinessID, a.GroupID, a.Code, a.Name, strings.ToUpper(a.Currency),
		opening, a.OpeningSide, a.IsBankAccount, a.IsCashAccount, md, a.Active)
	if err != nil {
		return books.Account{}, err
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a books.Account) (books.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return books.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
		update accounts set group_id=$1, code=$2, name=$3, metadata=$4, active=$5
		where id=$6 and business_id=$7
	`, a.GroupID, a.Code, a.Name, md, a.Active, a.ID, a.BusinessID)
	if err != nil {
		return books.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return books.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- Voucher types ---

func (s *Store) VoucherType(ctx context.Context, scope books.Scope, typeID uuid.UUID) (books.VoucherType, error) {
	var t books.VoucherType
	err := s.pool.QueryRow(ctx, `
		select id, business_id, name, prefix from voucher_types where id = $1 and business_id = $2
	`, typeID, scope.BusinessID).Scan(&t.ID, &t.BusinessID, &t.Name, &t.Prefix)
	if errors.Is(err, pgx.ErrNoRows) {
		return books.VoucherType{}, errs.ErrNotFound
	}
	if err != nil {
		return books.VoucherType{}, err
	}
	return t, nil
}

func (s *Store) ListVoucherTypes(ctx context.Context, scope books.Scope) ([]books.VoucherType, error) {
	rows, err := s.pool.Query(ctx, `
		select id, business_id, name, prefix from voucher_types where business_id = $1 order by name
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.VoucherType, 0)
	for rows.Next() {
		var t books.VoucherType
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.Name, &t.Prefix); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateVoucherType(ctx context.Context, t books.VoucherType) (books.VoucherType, error) {
	_, err := s.pool.Exec(ctx, `
		insert into voucher_types (id, business_id, name, prefix) values ($1,$2,$3,$4)
	`, t.ID, t.BusinessID, t.Name, t.Prefix)
	if err != nil {
		return books.VoucherType{}, err
	}
	return t, nil
}

// --- Cost centers ---

func (s *Store) ListCostCenters(ctx context.Context, scope books.Scope) ([]books.CostCenter, error) {
	rows, err := s.pool.Query(ctx, `
		select id, business_id, name, parent_id, sequence from cost_centers
		where business_id = $1 order by sequence, id
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.CostCenter, 0)
	for rows.Next() {
		var c books.CostCenter
		if err := rows.Scan(&c.ID, &c.BusinessID, &c.Name, &c.ParentID, &c.Sequence); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCostCenter(ctx context.Context, c books.CostCenter) (books.CostCenter, error) {
	_, err := s.pool.Exec(ctx, `
		insert into cost_centers (id, business_id, name, parent_id, sequence)
		values ($1,$2,$3,$4,$5)
	`, c.ID, c.BusinessID, c.Name, c.ParentID, c.Sequence)
	if err != nil {
		return books.CostCenter{}, err
	}
	return c, nil
}

// --- Vouchers ---

const voucherCols = `id, business_id, type_id, financial_year_id, number, date, currency, party_id, narration, posted, metadata`

func scanVoucher(row pgx.Row) (books.Voucher, error) {
	var v books.Voucher
	var mdBytes []byte
	err := row.Scan(&v.ID, &v.BusinessID, &v.TypeID, &v.FinancialYearID, &v.Number,
		&v.Date, &v.Currency, &v.PartyID, &v.Narration, &v.Posted, &mdBytes)
	if err != nil {
		return books.Voucher{}, err
	}
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			v.Metadata = m
		}
	}
	return v, nil
}

// loadItems attaches voucher items for the given voucher IDs.
func (s *Store) loadItems(ctx context.Context, byID map[uuid.UUID]*books.Voucher, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.pool.Query(ctx, `
		select id, voucher_id, account_id, cost_center_id, debit_minor, credit_minor, narration, sequence
		from voucher_items where voucher_id = any($1) order by sequence, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it books.VoucherItem
		var debitMinor, creditMinor int64
		if err := rows.Scan(&it.ID, &it.VoucherID, &it.AccountID, &it.CostCenterID,
			&debitMinor, &creditMinor, &it.Narration, &it.Sequence); err != nil {
			return err
		}
		v := byID[it.VoucherID]
		if v == nil {
			continue
		}
		it.Debit, _ = money.NewAmountFromMinorUnits(v.Currency, debitMinor)
		it.Credit, _ = money.NewAmountFromMinorUnits(v.Currency, creditMinor)
		v.Items = append(v.Items, it)
	}
	return rows.Err()
}

func (s *Store) Voucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error) {
	v, err := scanVoucher(s.pool.QueryRow(ctx, `
		select `+voucherCols+` from vouchers where id = $1 and business_id = $2
	`, voucherID, scope.BusinessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return books.Voucher{}, errs.ErrNotFound
	}
	if err != nil {
		return books.Voucher{}, err
	}
	if err := s.loadItems(ctx, map[uuid.UUID]*books.Voucher{v.ID: &v}, []uuid.UUID{v.ID}); err != nil {
		return books.Voucher{}, err
	}
	return v, nil
}

func (s *Store) ListVouchers(ctx context.Context, scope books.Scope) ([]books.Voucher, error) {
	rows, err := s.pool.Query(ctx, `
		select `+voucherCols+` from vouchers where business_id = $1 order by date asc, id asc
	`, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.Voucher, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*books.Voucher, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := s.loadItems(ctx, byID, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateVoucher(ctx context.Context, v books.Voucher) (books.Voucher, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return books.Voucher{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertVoucher(ctx, tx, v); err != nil {
		return books.Voucher{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return books.Voucher{}, err
	}
	return v, nil
}

func (s *Store) UpdateVoucher(ctx context.Context, v books.Voucher) (books.Voucher, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return books.Voucher{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	md, _ := v.Metadata.MarshalStableJSON()
	ct, err := tx.Exec(ctx, `
		update vouchers set type_id=$1, financial_year_id=$2, number=$3, date=$4, currency=$5, party_id=$6, narration=$7, posted=$8, metadata=$9
		where id=$10 and business_id=$11
	`, v.TypeID, v.FinancialYearID, v.Number, v.Date, strings.ToUpper(v.Currency), v.PartyID, v.Narration, v.Posted, md, v.ID, v.BusinessID)
	if err != nil {
		return books.Voucher{}, err
	}
	if ct.RowsAffected() == 0 {
		return books.Voucher{}, errs.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `delete from voucher_items where voucher_id = $1`, v.ID); err != nil {
		return books.Voucher{}, err
	}
	if err := insertItems(ctx, tx, v); err != nil {
		return books.Voucher{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return books.Voucher{}, err
	}
	return v, nil
}

func (s *Store) DeleteVoucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `
		delete from vouchers where id = $1 and business_id = $2
	`, voucherID, scope.BusinessID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// NextVoucherNumber advances the per (type, financial year) sequence row
// atomically; concurrent callers serialize on the row lock.
func (s *Store) NextVoucherNumber(ctx context.Context, scope books.Scope, typeID, yearID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		insert into voucher_sequences (business_id, type_id, financial_year_id, last_number)
		values ($1,$2,$3,1)
		on conflict (business_id, type_id, financial_year_id)
		do update set last_number = voucher_sequences.last_number + 1
		returning last_number
	`, scope.BusinessID, typeID, yearID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceVoucherEntries deletes every journal entry of the voucher, inserts
// the given set and stores the voucher's posted flag, all in one transaction.
func (s *Store) ReplaceVoucherEntries(ctx context.Context, v books.Voucher, entries []books.JournalEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
		delete from journal_entries where voucher_id = $1 and business_id = $2
	`, v.ID, v.BusinessID); err != nil {
		return err
	}
	for _, e := range entries {
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		if _, err := tx.Exec(ctx, `
			insert into journal_entries (id, business_id, financial_year_id, voucher_id, account_id, cost_center_id, date, debit_minor, credit_minor, narration)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, e.ID, e.BusinessID, e.FinancialYearID, e.VoucherID, e.AccountID, e.CostCenterID, e.Date, d, c, e.Narration); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
		update vouchers set posted = $1 where id = $2 and business_id = $3
	`, v.Posted, v.ID, v.BusinessID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// insertVoucher inserts the voucher header and its items within tx.
func insertVoucher(ctx context.Context, tx pgx.Tx, v books.Voucher) error {
	md, _ := v.Metadata.MarshalStableJSON()
	if _, err := tx.Exec(ctx, `
		insert into vouchers (id, business_id, type_id, financial_year_id, number, date, currency, party_id, narration, posted, metadata)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, v.ID, v.BusinessID, v.TypeID, v.FinancialYearID, v.Number, v.Date,
		strings.ToUpper(v.Currency), v.PartyID, v.Narration, v.Posted, md); err != nil {
		return err
	}
	return insertItems(ctx, tx, v)
}

func insertItems(ctx context.Context, tx pgx.Tx, v books.Voucher) error {
	for _, it := range v.Items {
		d, _ := it.Debit.MinorUnits()
		c, _ := it.Credit.MinorUnits()
		if _, err := tx.Exec(ctx, `
			insert into voucher_items (id, voucher_id, account_id, cost_center_id, debit_minor, credit_minor, narration, sequence)
			values ($1,$2,$3,$4,$5,$6,$7,$8)
		`, it.ID, v.ID, it.AccountID, it.CostCenterID, d, c, it.Narration, it.Sequence); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

// --- Journal entries ---

const entryCols = `e.id, e.business_id, e.financial_year_id, e.voucher_id, e.account_id, e.cost_center_id, e.date, e.debit_minor, e.credit_minor, e.narration, v.currency`

func scanEntry(row pgx.Row) (books.JournalEntry, error) {
	var e books.JournalEntry
	var debitMinor, creditMinor int64
	var currency string
	err := row.Scan(&e.ID, &e.BusinessID, &e.FinancialYearID, &e.VoucherID, &e.AccountID,
		&e.CostCenterID, &e.Date, &debitMinor, &creditMinor, &e.Narration, &currency)
	if err != nil {
		return books.JournalEntry{}, err
	}
	e.Debit, _ = money.NewAmountFromMinorUnits(currency, debitMinor)
	e.Credit, _ = money.NewAmountFromMinorUnits(currency, creditMinor)
	return e, nil
}

// Entries returns the business's journal entries matching the filter in
// (date, id) order.
func (s *Store) Entries(ctx context.Context, scope books.Scope, f books.EntryFilter) ([]books.JournalEntry, error) {
	q := `
		select ` + entryCols + `
		from journal_entries e
		join vouchers v on v.id = e.voucher_id
		where e.business_id = $1`
	args := []any{scope.BusinessID}
	if f.AccountID != nil {
		args = append(args, *f.AccountID)
		q += fmt.Sprintf(" and e.account_id = $%d", len(args))
	}
	if f.CostCenterID != nil {
		args = append(args, *f.CostCenterID)
		q += fmt.Sprintf(" and e.cost_center_id = $%d", len(args))
	}
	if f.FinancialYearID != nil {
		args = append(args, *f.FinancialYearID)
		q += fmt.Sprintf(" and e.financial_year_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" and e.date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" and e.date <= $%d", len(args))
	}
	q += " order by e.date asc, e.id asc"
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EntriesByVoucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) ([]books.JournalEntry, error) {
	rows, err := s.pool.Query(ctx, `
		select `+entryCols+`
		from journal_entries e
		join vouchers v on v.id = e.voucher_id
		where e.voucher_id = $1 and e.business_id = $2
		order by e.date asc, e.id asc
	`, voucherID, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]books.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EntriesByIDs(ctx context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.JournalEntry, error) {
	out := make(map[uuid.UUID]books.JournalEntry)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		select `+entryCols+`
		from journal_entries e
		join vouchers v on v.id = e.voucher_id
		where e.business_id = $1 and e.id = any($2)
	`, scope.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

// --- Reconciliations ---

func (s *Store) Reconciliation(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error) {
	var r books.Reconciliation
	var stmtMinor, acctMinor, recMinor int64
	var currency string
	err := s.pool.QueryRow(ctx, `
		select r.id, r.business_id, r.account_id, r.statement_date,
		       r.statement_balance_minor, r.account_balance_minor, r.reconciled_balance_minor,
		       r.completed, r.completed_by, r.completed_at, a.currency
		from reconciliations r
		join accounts a on a.id = r.account_id
		where r.id = $1 and r.business_id = $2
	`, reconciliationID, scope.BusinessID).Scan(&r.ID, &r.BusinessID, &r.AccountID, &r.StatementDate,
		&stmtMinor, &acctMinor, &recMinor, &r.Completed, &r.CompletedBy, &r.CompletedAt, &currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	if err != nil {
		return books.Reconciliation{}, err
	}
	r.StatementBalance, _ = money.NewAmountFromMinorUnits(currency, stmtMinor)
	r.AccountBalance, _ = money.NewAmountFromMinorUnits(currency, acctMinor)
	r.ReconciledBalance, _ = money.NewAmountFromMinorUnits(currency, recMinor)

	rows, err := s.pool.Query(ctx, `
		select reconciliation_id, journal_entry_id, is_reconciled
		from reconciliation_items where reconciliation_id = $1
		order by journal_entry_id
	`, r.ID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it books.ReconciliationItem
		if err := rows.Scan(&it.ReconciliationID, &it.JournalEntryID, &it.IsReconciled); err != nil {
			return books.Reconciliation{}, err
		}
		r.Items = append(r.Items, it)
	}
	return r, rows.Err()
}

func (s *Store) CreateReconciliation(ctx context.Context, r books.Reconciliation) (books.Reconciliation, error) {
	stmt, _ := r.StatementBalance.MinorUnits()
	acct, _ := r.AccountBalance.MinorUnits()
	rec, _ := r.ReconciledBalance.MinorUnits()
	_, err := s.pool.Exec(ctx, `
		insert into reconciliations (id, business_id, account_id, statement_date, statement_balance_minor, account_balance_minor, reconciled_balance_minor, completed, completed_by, completed_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.ID, r.BusinessID, r.AccountID, r.StatementDate, stmt, acct, rec, r.Completed, r.CompletedBy, r.CompletedAt)
	if err != nil {
		return books.Reconciliation{}, err
	}
	return r, nil
}

// UpdateReconciliation rewrites the header and the full item set.
func (s *Store) UpdateReconciliation(ctx context.Context, r books.Reconciliation) (books.Reconciliation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return books.Reconciliation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	stmt, _ := r.StatementBalance.MinorUnits()
	acct, _ := r.AccountBalance.MinorUnits()
	rec, _ := r.ReconciledBalance.MinorUnits()
	ct, err := tx.Exec(ctx, `
		update reconciliations
		set statement_date=$1, statement_balance_minor=$2, account_balance_minor=$3, reconciled_balance_minor=$4, completed=$5, completed_by=$6, completed_at=$7
		where id=$8 and business_id=$9
	`, r.StatementDate, stmt, acct, rec, r.Completed, r.CompletedBy, r.CompletedAt, r.ID, r.BusinessID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if ct.RowsAffected() == 0 {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `delete from reconciliation_items where reconciliation_id = $1`, r.ID); err != nil {
		return books.Reconciliation{}, err
	}
	for _, it := range r.Items {
		if _, err := tx.Exec(ctx, `
			insert into reconciliation_items (reconciliation_id, journal_entry_id, is_reconciled)
			values ($1,$2,$3)
		`, r.ID, it.JournalEntryID, it.IsReconciled); err != nil {
			return books.Reconciliation{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return books.Reconciliation{}, err
	}
	return r, nil
}

// --- Dev seed ---

// SeedDev inserts a business, a calendar financial year, a journal voucher
// type, the curated default chart and cash/bank accounts for quick local
// testing. Fresh UUIDs each run.
func (s *Store) SeedDev(ctx context.Context) (books.Business, books.Account, books.Account, error) {
	fail := func(err error) (books.Business, books.Account, books.Account, error) {
		return books.Business{}, books.Account{}, books.Account{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	biz := books.Business{ID: uuid.New(), Name: "Demo Books Ltd", Currency: "GBP"}
	if _, err := tx.Exec(ctx, `
		insert into businesses (id, name, currency) values ($1,$2,$3)
	`, biz.ID, biz.Name, biz.Currency); err != nil {
		return fail(err)
	}

	year := time.Now().UTC().Year()
	fy := books.FinancialYear{
		ID:         uuid.New(),
		BusinessID: biz.ID,
		Name:       fmt.Sprintf("FY%d", year),
		StartDate:  time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := tx.Exec(ctx, `
		insert into financial_years (id, business_id, name, start_date, end_date, locked)
		values ($1,$2,$3,$4,$5,false)
	`, fy.ID, fy.BusinessID, fy.Name, fy.StartDate, fy.EndDate); err != nil {
		return fail(err)
	}
	if _, err := tx.Exec(ctx, `
		insert into voucher_types (id, business_id, name, prefix) values ($1,$2,'Journal','JRN')
	`, uuid.New(), biz.ID); err != nil {
		return fail(err)
	}

	groupIDs := map[string]uuid.UUID{}
	for _, nature := range dictionary.Natures() {
		for seq, def := range dictionary.GroupsFor(&nature) {
			id := uuid.New()
			if _, err := tx.Exec(ctx, `
				insert into account_groups (id, business_id, name, parent_id, nature, affects_gross_profit, sequence)
				values ($1,$2,$3,null,$4,$5,$6)
			`, id, biz.ID, def.Label, nature, def.AffectsGrossProfit, seq); err != nil {
				return fail(err)
			}
			groupIDs[def.Code] = id
		}
	}

	cash := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: groupIDs["cash_in_hand"],
		Code: "CASH", Name: "Cash", Currency: biz.Currency,
		OpeningBalance: books.MustAmount(biz.Currency, 0), OpeningSide: books.SideDebit,
		IsCashAccount: true, Active: true,
	}
	bank := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: groupIDs["bank_accounts"],
		Code: "BANK", Name: "Current Account", Currency: biz.Currency,
		OpeningBalance: books.MustAmount(biz.Currency, 0), OpeningSide: books.SideDebit,
		IsBankAccount: true, Active: true,
	}
	for _, a := range []books.Account{cash, bank} {
		if _, err := tx.Exec(ctx, `
			insert into accounts (id, business_id, group_id, code, name, currency, opening_balance_minor, opening_side, is_bank_account, is_cash_account, metadata, active)
			values ($1,$2,$3,$4,$5,$6,0,$7,$8,$9,null,true)
		`, a.ID, a.BusinessID, a.GroupID, a.Code, a.Name, a.Currency, a.OpeningSide, a.IsBankAccount, a.IsCashAccount); err != nil {
			return fail(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fail(err)
	}
	return biz, cash, bank, nil
}
