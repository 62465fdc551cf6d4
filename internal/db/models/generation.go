package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Generation is one persisted prompt -> artifact record. Rows are immutable
// after insert; an edit inserts a new row pointing back via ParentID.
type Generation struct {
	bun.BaseModel `bun:"table:generations"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	Prompt         string          `bun:"prompt,notnull" json:"prompt"`
	EnhancedPrompt string          `bun:"enhanced_prompt,nullzero" json:"enhanced_prompt,omitempty"`
	ImagePath      string          `bun:"image_path,nullzero" json:"image_path,omitempty"`
	ModelPath      string          `bun:"model_path,nullzero" json:"model_path,omitempty"`
	ParentID       int64           `bun:"parent_id,nullzero" json:"parent_id,omitempty"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Metadata       json.RawMessage `bun:"metadata,nullzero" json:"metadata,omitempty"`
}
