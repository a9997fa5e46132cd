package dto

// DayExportRequest captures GET /export/day/{date}.
type DayExportRequest struct {
	Date string `uri:"date" validate:"required,max=10"`
}

// WorkerExportRequest captures GET /export/worker/{workerId}.
type WorkerExportRequest struct {
	WorkerID string `uri:"workerId" validate:"required,max=64"`
}

// ItemExportRequest captures GET /export/item/{itemId}.
type ItemExportRequest struct {
	ItemID string `uri:"itemId" validate:"required,max=64"`
}

