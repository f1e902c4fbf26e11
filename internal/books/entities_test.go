package books

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNatureNormalSide(t *testing.T) {
	cases := []struct {
		nature Nature
		want   Side
	}{
		{NatureAssets, SideDebit},
		{NatureExpense, SideDebit},
		{NatureLiabilities, SideCredit},
		{NatureIncome, SideCredit},
		{NatureEquity, SideCredit},
	}
	for _, c := range cases {
		if got := c.nature.NormalSide(); got != c.want {
			t.Errorf("%s normal side = %s, want %s", c.nature, got, c.want)
		}
		if !c.nature.Valid() {
			t.Errorf("%s should be valid", c.nature)
		}
	}
	if Nature("revenue").Valid() {
		t.Errorf("unknown nature should be invalid")
	}
}

func TestSideOpposite(t *testing.T) {
	if SideDebit.Opposite() != SideCredit || SideCredit.Opposite() != SideDebit {
		t.Fatalf("opposite sides wrong")
	}
}

func TestVoucherTotals(t *testing.T) {
	v := Voucher{
		Currency: "GBP",
		Items: []VoucherItem{
			{Debit: MustAmount("GBP", 700), Credit: MustAmount("GBP", 0)},
			{Debit: MustAmount("GBP", 300), Credit: MustAmount("GBP", 0)},
			{Debit: MustAmount("GBP", 0), Credit: MustAmount("GBP", 1000)},
		},
	}
	d, c := v.Totals()
	if d != 1000 || c != 1000 {
		t.Fatalf("totals = %d/%d, want 1000/1000", d, c)
	}
	if !v.Balanced() {
		t.Fatalf("voucher should be balanced")
	}
	if v.TotalAmount() != 1000 {
		t.Fatalf("total amount = %d, want 1000", v.TotalAmount())
	}
	v.Items[2].Credit = MustAmount("GBP", 1200)
	if v.Balanced() {
		t.Fatalf("voucher should be unbalanced")
	}
	if v.TotalAmount() != 1200 {
		t.Fatalf("total amount = %d, want the larger side", v.TotalAmount())
	}
}

func TestEntryFilterMatches(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	accountID := uuid.New()
	e := JournalEntry{AccountID: accountID, Date: day(10)}

	if !(EntryFilter{}).Matches(e) {
		t.Errorf("empty filter must match everything")
	}
	from, to := day(10), day(10)
	if !(EntryFilter{From: &from, To: &to}).Matches(e) {
		t.Errorf("bounds are inclusive")
	}
	before := day(11)
	if (EntryFilter{From: &before}).Matches(e) {
		t.Errorf("entry before From must not match")
	}
	after := day(9)
	if (EntryFilter{To: &after}).Matches(e) {
		t.Errorf("entry after To must not match")
	}
	other := uuid.New()
	if (EntryFilter{AccountID: &other}).Matches(e) {
		t.Errorf("other account must not match")
	}
	if !(EntryFilter{AccountID: &accountID}).Matches(e) {
		t.Errorf("same account must match")
	}
}
