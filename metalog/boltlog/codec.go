package boltlog

import (
	"encoding/json"
	"fmt"

	"github.com/skua-io/skua/metalog"
)

// envelope is the stored form of a record: a type tag plus the
// record's own fields.
type envelope struct {
	Type    metalog.RecordType `json:"type"`
	Payload json.RawMessage    `json:"payload"`
}

func encodeRecord(record metalog.Record) ([]byte, error) {
	payload, err := json.Marshal(record)

	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: record.Type(), Payload: payload})
}

func decodeRecord(data []byte) (metalog.Record, error) {
	var e envelope

	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	var record metalog.Record

	switch e.Type {
	case metalog.TypeRegisterNode:
		record = &metalog.RegisterNode{}
	case metalog.TypeUnregisterNode:
		record = &metalog.UnregisterNode{}
	case metalog.TypeFenceNode:
		record = &metalog.FenceNode{}
	case metalog.TypeUnfenceNode:
		record = &metalog.UnfenceNode{}
	case metalog.TypeRegistrationChange:
		record = &metalog.RegistrationChange{}
	default:
		return nil, fmt.Errorf("unknown record type %q", e.Type)
	}

	if err := json.Unmarshal(e.Payload, record); err != nil {
		return nil, err
	}

	return record, nil
}
