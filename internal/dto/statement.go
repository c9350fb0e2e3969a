package dto

type ExpenseResponse struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"`
	Account  string  `json:"account"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

type IngestResponse struct {
	RecordCount int               `json:"record_count"`
	Records     []ExpenseResponse `json:"records,omitempty"`
}
