package domain

import "time"

type ReconcileState string

const (
	StateIdle        ReconcileState = "IDLE"
	StateFetching    ReconcileState = "FETCHING"
	StateFetchFailed ReconcileState = "FETCH_FAILED"
	StateFetched     ReconcileState = "FETCHED"
	StateReconciling ReconcileState = "RECONCILING"
	StateDone        ReconcileState = "DONE"
)

type ChangeSource string

const (
	SourceWebhook ChangeSource = "webhook"
	SourcePolling ChangeSource = "polling"
)

type SalesDateChange struct {
	EventID       string       `json:"eventId"`
	EventName     string       `json:"eventName"`
	Region        string       `json:"region"`
	Field         string       `json:"field"`
	PreviousValue string       `json:"previousValue"`
	NewValue      string       `json:"newValue"`
	ChangedAt     time.Time    `json:"changedAt"`
	Source        ChangeSource `json:"source"`
}

type EventHistory struct {
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	Region    string    `json:"region"`
	SellStart string    `json:"sellStart,omitempty"`
	SellEnd   string    `json:"sellEnd,omitempty"`
	Status    string    `json:"status,omitempty"`
	LastSeen  time.Time `json:"lastSeen"`
}

// PollSummary describes the last scheduled reconciliation pass.
type PollSummary struct {
	RunID        string    `json:"runId"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Reconciled   int       `json:"reconciled"`
	Failed       []string  `json:"failed,omitempty"`
	Incomplete   []string  `json:"incomplete,omitempty"`
	SnapshotSent bool      `json:"snapshotSent"`
	Published    int       `json:"published"`
}
