package model

// HistoryIDRequest is the body of POST /api/v1/predict-and-update. The
// recommendation service reads, predicts and writes back the clinical history
// row it names.
type HistoryIDRequest struct {
	HistoryID *int `json:"history_id" validate:"required"`
}
