package domain

import "time"

// Operation is the kind of collection write a hook observes.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// SyncStatus is the outcome of one hook invocation.
type SyncStatus string

const (
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
	SyncSkipped SyncStatus = "skipped"
)

// SyncResult describes what a lifecycle hook did to the external catalog.
// A failed result never blocks the local write.
type SyncResult struct {
	Hook              string     `json:"hook"`
	ProductID         string     `json:"productId,omitempty"`
	Operation         Operation  `json:"operation"`
	Status            SyncStatus `json:"status"`
	Reason            string     `json:"reason,omitempty"`
	ExternalProductID string     `json:"externalProductId,omitempty"`
	ExternalPriceID   string     `json:"externalPriceId,omitempty"`
	CartsUpdated      int64      `json:"cartsUpdated,omitempty"`
	At                time.Time  `json:"at"`
}

// Empty reports whether the hook had nothing to report.
func (r SyncResult) Empty() bool {
	return r.Status == ""
}

func (r SyncResult) Failed() bool {
	return r.Status == SyncFailed
}
