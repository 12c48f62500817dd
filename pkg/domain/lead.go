package domain

import (
	"maps"
	"slices"
	"time"
)

// Direction tells who authored a history entry.
type Direction string

const (
	DirectionIn  Direction = "in"  // participant -> system
	DirectionOut Direction = "out" // system -> participant
)

// HistoryEntry is one message exchanged with a lead.
type HistoryEntry struct {
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	StepID    string    `json:"step_id,omitempty"`
	// Artifact references generated content (e.g. a stored image) attached to the message.
	Artifact string `json:"artifact,omitempty"`
}

// Lead is the persisted conversation state of one participant.
type Lead struct {
	ID            string            `json:"id"`
	ChannelID     string            `json:"channel_id"`
	DisplayName   string            `json:"display_name"`
	CurrentStepID string            `json:"current_step_id"`
	Answers       map[string]string `json:"answers"`
	History       []HistoryEntry    `json:"history"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewLead creates a lead positioned on startStepID.
func NewLead(id, channelID, displayName, startStepID string, now time.Time) *Lead {
	if startStepID == "" {
		startStepID = DefaultStartStepID
	}
	return &Lead{
		ID:            id,
		ChannelID:     channelID,
		DisplayName:   displayName,
		CurrentStepID: startStepID,
		Answers:       make(map[string]string),
		History:       []HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy so a working copy can be mutated without
// touching the committed record.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.Answers = maps.Clone(l.Answers)
	if c.Answers == nil {
		c.Answers = make(map[string]string)
	}
	c.History = slices.Clone(l.History)
	if c.History == nil {
		c.History = []HistoryEntry{}
	}
	return &c
}

// LastOutgoing returns the text of the most recent "out" entry, or "".
func (l *Lead) LastOutgoing() string {
	for i := len(l.History) - 1; i >= 0; i-- {
		if l.History[i].Direction == DirectionOut {
			return l.History[i].Text
		}
	}
	return ""
}
