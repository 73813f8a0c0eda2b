package models

import "time"

// ContentKind tags the variant held by a ContentReference.
type ContentKind uint8

const (
	ContentKindInline ContentKind = iota + 1
	ContentKindExternal
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindInline:
		return "inline"
	case ContentKindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// InlineContent carries the question text and the caller-encrypted answer.
type InlineContent struct {
	Text            string
	EncryptedAnswer []byte
	AnswerHash      [32]byte
}

// ExternalContent points at content stored off-service by CID.
type ExternalContent struct {
	CID  string
	Hash [32]byte
}

// ContentReference is either inline content or an external pointer.
// Exactly one of Inline or External is set, matching Kind.
type ContentReference struct {
	Kind     ContentKind
	Inline   *InlineContent
	External *ExternalContent
}

func NewInlineContent(text string, encryptedAnswer []byte) ContentReference {
	return ContentReference{
		Kind:   ContentKindInline,
		Inline: &InlineContent{Text: text, EncryptedAnswer: encryptedAnswer},
	}
}

func NewExternalContent(cid string, hash [32]byte) ContentReference {
	return ContentReference{
		Kind:     ContentKindExternal,
		External: &ExternalContent{CID: cid, Hash: hash},
	}
}

// Question is a piece of gated content and its sales counters.
type Question struct {
	Index        uint64           `db:"question_index"`
	Creator      string           `db:"creator"`
	Content      ContentReference `db:"-"`
	ContentHash  [32]byte         `db:"content_hash"`
	UnlockPrice  uint64           `db:"unlock_price"`
	MaxKeys      uint64           `db:"max_keys"`
	CurrentKeys  uint64           `db:"current_keys"`
	TotalSales   uint64           `db:"total_sales"`
	IsActive     bool             `db:"is_active"`
	CreationTime time.Time        `db:"creation_time"`
	ValidatedAt  time.Time        `db:"validated_at"`
	UpdatedAt    time.Time        `db:"updated_at"`
}

// KeysAvailable reports whether another key can be minted.
func (q *Question) KeysAvailable() bool {
	return q.CurrentKeys < q.MaxKeys
}
