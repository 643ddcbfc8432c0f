package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Action is the kind of mutation a record carries.
type Action string

// Supported actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// IsValid returns true for create, update and delete.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// RecordStatus is the reconciliation status of a queued record.
type RecordStatus string

// Record statuses. Synced records are removed from the queue, never stored.
const (
	StatusPending RecordStatus = "pending"
	StatusSynced  RecordStatus = "synced"
	StatusFailed  RecordStatus = "failed"
)

// SyncRecord is a single locally queued mutation of a grid asset.
type SyncRecord struct {
	// ID is unique within the queue and referenced by server acknowledgements.
	ID string

	// EntityType names the affected entity. It always matches Data.EntityType().
	EntityType EntityType

	// Action is create, update or delete.
	Action Action

	// Data is the typed entity payload. Full object for create/update,
	// identifying fields for delete.
	Data Payload

	// Timestamp is when the change was recorded. Never mutated.
	Timestamp time.Time

	// Status is pending until the server rejects the record.
	Status RecordStatus

	// ErrorMessage is the server-supplied reason for a failed record.
	ErrorMessage string
}

// IsPending returns true if the record is waiting for its first acknowledgement.
func (r *SyncRecord) IsPending() bool {
	return r.Status == StatusPending
}

// MarkFailed records a server rejection.
func (r *SyncRecord) MarkFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
}

// syncRecordJSON is the wire and storage shape of a SyncRecord.
type syncRecordJSON struct {
	ID           string          `json:"id"`
	EntityType   EntityType      `json:"entity_type"`
	Action       Action          `json:"action"`
	Data         json.RawMessage `json:"data"`
	Timestamp    wireTime        `json:"timestamp"`
	Status       RecordStatus    `json:"status,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// MarshalJSON encodes the record with its payload inlined under "data".
func (r SyncRecord) MarshalJSON() ([]byte, error) {
	data := []byte("{}")
	if r.Data != nil {
		var err error
		data, err = json.Marshal(r.Data)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s payload: %w", r.EntityType, err)
		}
	}

	status := r.Status
	if status == "" {
		status = StatusPending
	}

	out := syncRecordJSON{
		ID:         r.ID,
		EntityType: r.EntityType,
		Action:     r.Action,
		Data:       data,
		Timestamp:  wireTime(r.Timestamp),
		Status:     status,
	}
	if status == StatusFailed {
		out.ErrorMessage = r.ErrorMessage
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a record, selecting the payload variant from entity_type.
func (r *SyncRecord) UnmarshalJSON(b []byte) error {
	var in syncRecordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	payload, err := DecodePayload(in.EntityType, in.Data)
	if err != nil {
		return fmt.Errorf("record %s: %w", in.ID, err)
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}

	*r = SyncRecord{
		ID:           in.ID,
		EntityType:   in.EntityType,
		Action:       in.Action,
		Data:         payload,
		Timestamp:    time.Time(in.Timestamp),
		Status:       status,
		ErrorMessage: in.ErrorMessage,
	}
	return nil
}

// DecodeRecords decodes each raw record on its own, so one bad entry never
// loses the others. A record whose data does not fit its variant is kept
// with a GenericPayload. Records that cannot be read at all, including
// those without an entity type, are skipped and reported.
func DecodeRecords(raw []json.RawMessage) ([]SyncRecord, []error) {
	records := make([]SyncRecord, 0, len(raw))
	var skipped []error
	for i, entry := range raw {
		r, err := decodeRecordLenient(entry)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}

func decodeRecordLenient(entry json.RawMessage) (SyncRecord, error) {
	var r SyncRecord
	strictErr := json.Unmarshal(entry, &r)
	if strictErr == nil {
		return r, nil
	}

	var in syncRecordJSON
	if err := json.Unmarshal(entry, &in); err != nil {
		return SyncRecord{}, err
	}
	if in.EntityType == "" {
		return SyncRecord{}, strictErr
	}
	data := in.Data
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = json.RawMessage("{}")
	}
	fields, err := decodeGeneric(data)
	if err != nil {
		return SyncRecord{}, strictErr
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	return SyncRecord{
		ID:           in.ID,
		EntityType:   in.EntityType,
		Action:       in.Action,
		Data:         GenericPayload{Type: in.EntityType, Fields: fields},
		Timestamp:    time.Time(in.Timestamp),
		Status:       status,
		ErrorMessage: in.ErrorMessage,
	}, nil
}

// SyncBatch is an upload unit: a snapshot of the queue at creation time.
type SyncBatch struct {
	BatchID   string       `json:"batch_id"`
	Timestamp time.Time    `json:"timestamp"`
	Records   []SyncRecord `json:"records"`
}

// RecordIDs returns the set of record ids contained in the batch.
func (b *SyncBatch) RecordIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(b.Records))
	for i := range b.Records {
		ids[b.Records[i].ID] = struct{}{}
	}
	return ids
}

// RecordError is a per-record rejection reported by the server.
type RecordError struct {
	RecordID string `json:"record_id"`
	Error    string `json:"error"`
}

// BatchResult is the server's response to an uploaded batch.
type BatchResult struct {
	Success        bool          `json:"success"`
	ProcessedCount int           `json:"processed_count"`
	FailedCount    int           `json:"failed_count"`
	Errors         []RecordError `json:"errors,omitempty"`
	BatchID        string        `json:"batch_id,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// UnmarshalJSON accepts timestamps with or without a zone offset.
func (b *BatchResult) UnmarshalJSON(data []byte) error {
	type alias BatchResult
	in := struct {
		*alias
		Timestamp wireTime `json:"timestamp"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	b.Timestamp = time.Time(in.Timestamp)
	return nil
}

// DownloadResult is the server's response to a change download.
type DownloadResult struct {
	Records   []SyncRecord `json:"records"`
	Timestamp time.Time    `json:"timestamp"`

	// Skipped lists the records that could not be read. Set only on decode.
	Skipped []error `json:"-"`
}

// UnmarshalJSON accepts timestamps with or without a zone offset and decodes
// records with DecodeRecords.
func (d *DownloadResult) UnmarshalJSON(data []byte) error {
	var in struct {
		Records   []json.RawMessage `json:"records"`
		Timestamp wireTime          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	records, skipped := DecodeRecords(in.Records)
	*d = DownloadResult{
		Records:   records,
		Timestamp: time.Time(in.Timestamp),
		Skipped:   skipped,
	}
	return nil
}
