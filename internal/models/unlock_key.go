package models

import (
	"fmt"
	"time"
)

const KeyTokenSymbol = "QAK"

// UnlockKey grants its owner access to one question's answer.
type UnlockKey struct {
	QuestionIndex    uint64     `db:"question_index"`
	TokenID          uint64     `db:"token_id"`
	Owner            string     `db:"owner"`
	EncryptedPayload []byte     `db:"encrypted_payload"`
	IsListed         bool       `db:"is_listed"`
	ListPrice        uint64     `db:"list_price"`
	ListTime         *time.Time `db:"list_time"`
	MetadataURI      string     `db:"metadata_uri"`
	MintTime         time.Time  `db:"mint_time"`
	LastSoldPrice    uint64     `db:"last_sold_price"`
	LastSoldTime     *time.Time `db:"last_sold_time"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// KeyTokenName is the display name registered for a minted key.
func KeyTokenName(questionIndex, tokenID uint64) string {
	return fmt.Sprintf("QA Key #%d - Q%d", tokenID, questionIndex)
}

// KeyTokenRegistration describes a key token handed to the registrar.
type KeyTokenRegistration struct {
	QuestionIndex uint64
	TokenID       uint64
	Owner         string
	MintAuthority string
	Name          string
	Symbol        string
	URI           string
	RegisteredAt  time.Time
}

// Transfer moves Amount of Token from From to To at At. AuthorizedBy must
// be From.
type Transfer struct {
	From         string
	To           string
	AuthorizedBy string
	Token        string
	Amount       uint64
	At           time.Time
}
