package generations

import (
	"encoding/json"
	"time"
)

// EditHistory is recorded on generations produced by an image edit. The
// original prompt is kept for display; lineage itself follows the parent id.
type EditHistory struct {
	OriginalPrompt         string    `json:"original_prompt"`
	EditPrompt             string    `json:"edit_prompt"`
	PreviousEnhancedPrompt string    `json:"previous_enhanced_prompt"`
	Timestamp              time.Time `json:"timestamp"`
}

// Metadata is the open-ended payload attached to a generation record.
// EditHistory is the one defined shape; unrecognized keys round-trip
// unchanged through Extra.
type Metadata struct {
	EditHistory *EditHistory
	Extra       map[string]json.RawMessage
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage, len(m.Extra)+1)
	for key, value := range m.Extra {
		merged[key] = value
	}

	if m.EditHistory != nil {
		raw, err := json.Marshal(m.EditHistory)
		if err != nil {
			return nil, err
		}
		merged["edit_history"] = raw
	}

	return json.Marshal(merged)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["edit_history"]; ok {
		history := &EditHistory{}
		if err := json.Unmarshal(raw, history); err != nil {
			return err
		}
		m.EditHistory = history
		delete(fields, "edit_history")
	}

	if len(fields) > 0 {
		m.Extra = fields
	}

	return nil
}

// ParseMetadata decodes a stored metadata column. Empty input yields nil.
func ParseMetadata(raw json.RawMessage) (*Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	meta := &Metadata{}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, err
	}

	return meta, nil
}
