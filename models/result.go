package models

// SyncResult is the per-entity outcome of one sync pass. Errors counts
// records that failed individually without aborting the batch.
type SyncResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors,omitempty"`
	Total    int `json:"total"`
}

// Add sums another result into this one. Used when a "both" candidate sync
// runs leads and contacts back to back.
func (r *SyncResult) Add(other *SyncResult) {
	if other == nil {
		return
	}
	r.Imported += other.Imported
	r.Updated += other.Updated
	r.Errors += other.Errors
	r.Total += other.Total
}

// SyncStep holds either a step's result or the error that stopped it.
// A failed step never prevents the remaining steps from running.
type SyncStep struct {
	Result *SyncResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SyncReport is the composite outcome of a full orchestrated sync.
type SyncReport struct {
	Stages     SyncStep `json:"stages"`
	Users      SyncStep `json:"users"`
	Candidates SyncStep `json:"candidates"`
	SyncType   string   `json:"sync_type"` // "full" or "delta"
	Module     string   `json:"module"`
}
