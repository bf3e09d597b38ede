package model

// Usage is the per-user storage ledger.
//
//	OriginalUploaded = ActualStorage + SpaceSaved
type Usage struct {
	ActualStorage    int64   `db:"actual_storage" json:"actual_storage"`
	OriginalUploaded int64   `db:"original_uploaded" json:"original_uploaded"`
	SpaceSaved       int64   `db:"space_saved" json:"space_saved"`
	SavingsPercent   float64 `db:"-" json:"savings_percent"`
	QuotaLimit       int64   `db:"-" json:"quota_limit"`
}

func (u *Usage) Remaining() int64 {
	if u.ActualStorage >= u.QuotaLimit {
		return 0
	}
	return u.QuotaLimit - u.ActualStorage
}
