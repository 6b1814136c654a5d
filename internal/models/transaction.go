package models

// Direction is the money-flow classification printed on each statement line.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// Transaction represents a single PhonePe statement line.
type Transaction struct {
	Date        string    `json:"date"` // statement display form, e.g. "Oct 30, 2025"
	Description string    `json:"description"`
	Direction   Direction `json:"type"`
	Amount      float64   `json:"amount"`
}

// DebugLine captures what the parser did with each input line.
type DebugLine struct {
	Page    int    `json:"page"`
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	HasDate bool   `json:"hasDate"`
	Result  string `json:"result"` // "parsed", "skipped", "blank"
}

// Statement holds everything extracted from one uploaded document.
type Statement struct {
	Pages        int
	Transactions []Transaction
	DebugLines   []DebugLine
}
