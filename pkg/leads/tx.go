package leads

import (
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Tx is the mutable view of a lead inside Manager.Transact.
// Changes become durable only when the transaction function returns nil.
type Tx struct {
	lead    *domain.Lead
	existed bool
	now     func() time.Time
}

// Lead returns the working copy. Callers may read it freely; mutations
// should go through the Tx methods.
func (tx *Tx) Lead() *domain.Lead {
	return tx.lead
}

// Existed reports whether the lead was stored before this transaction began.
func (tx *Tx) Existed() bool {
	return tx.existed
}

// AppendMessage adds a history entry. A zero ts is replaced by the current time.
func (tx *Tx) AppendMessage(dir domain.Direction, text string, ts time.Time) {
	tx.AppendEntry(domain.HistoryEntry{Direction: dir, Text: text, Timestamp: ts})
}

// AppendEntry adds a fully populated history entry.
func (tx *Tx) AppendEntry(entry domain.HistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = tx.now()
	}
	tx.lead.History = append(tx.lead.History, entry)
}

// SetStep moves the lead to stepID.
func (tx *Tx) SetStep(stepID string) {
	tx.lead.CurrentStepID = stepID
}

// RecordAnswer stores value under stepID, replacing any previous answer.
func (tx *Tx) RecordAnswer(stepID, value string) {
	if tx.lead.Answers == nil {
		tx.lead.Answers = make(map[string]string)
	}
	tx.lead.Answers[stepID] = value
}
