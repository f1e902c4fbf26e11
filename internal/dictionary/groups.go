package dictionary

import "github.com/veribooks/books/internal/books"

// GroupDef describes one default account group offered when seeding a new
// business's chart of accounts.
type GroupDef struct {
	Code               string `json:"code"`
	Label              string `json:"label"`
	AffectsGrossProfit bool   `json:"affects_gross_profit"`
}

var curated = map[books.Nature][]GroupDef{
	books.NatureAssets: {
		{Code: "current_assets", Label: "Current Assets"},
		{Code: "bank_accounts", Label: "Bank Accounts"},
		{Code: "cash_in_hand", Label: "Cash In Hand"},
		{Code: "receivables", Label: "Sundry Debtors"},
		{Code: "fixed_assets", Label: "Fixed Assets"},
	},
	books.NatureLiabilities: {
		{Code: "current_liabilities", Label: "Current Liabilities"},
		{Code: "payables", Label: "Sundry Creditors"},
		{Code: "loans", Label: "Loans"},
		{Code: "duties_taxes", Label: "Duties & Taxes"},
	},
	books.NatureIncome: {
		{Code: "sales", Label: "Sales Accounts", AffectsGrossProfit: true},
		{Code: "direct_income", Label: "Direct Income", AffectsGrossProfit: true},
		{Code: "indirect_income", Label: "Indirect Income"},
	},
	books.NatureExpense: {
		{Code: "purchases", Label: "Purchase Accounts", AffectsGrossProfit: true},
		{Code: "direct_expenses", Label: "Direct Expenses", AffectsGrossProfit: true},
		{Code: "indirect_expenses", Label: "Indirect Expenses"},
	},
	books.NatureEquity: {
		{Code: "capital", Label: "Capital Account"},
		{Code: "reserves", Label: "Reserves & Surplus"},
	},
}

// GroupsFor returns the curated defaults for a nature, or all natures when
// nil.
func GroupsFor(n *books.Nature) []GroupDef {
	if n == nil {
		out := make([]GroupDef, 0)
		for _, nature := range Natures() {
			out = append(out, curated[nature]...)
		}
		return out
	}
	return curated[*n]
}

// Natures lists the natures in presentation order.
func Natures() []books.Nature {
	return []books.Nature{
		books.NatureAssets,
		books.NatureLiabilities,
		books.NatureEquity,
		books.NatureIncome,
		books.NatureExpense,
	}
}
