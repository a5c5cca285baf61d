package core

// Categorize returns a copy of txs where every Income transaction takes its
// description as category, so each income source is reported on its own.
// Expense transactions keep their category.
func Categorize(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		if t.Label == Income {
			t.Category = t.Description
		}
		out[i] = t
	}
	return out
}
