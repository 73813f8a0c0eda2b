package errs

import "errors"

// Kind classifies a domain error for callers that map errors to transport codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindPolicy
	KindValidation
	KindState
	KindArithmetic
	KindExternal
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindPolicy:
		return "policy"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	case KindExternal:
		return "external"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a sentinel domain error. Compare with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Policy errors, raised by the anti-abuse gate.
var (
	ErrMarketplacePaused = newError(KindPolicy, "MarketplacePaused", "marketplace is paused")
	ErrOperationPaused   = newError(KindPolicy, "OperationPaused", "operation is paused")
	ErrUserBlacklisted   = newError(KindPolicy, "Blacklisted", "user is blacklisted")
	ErrRateLimitExceeded = newError(KindPolicy, "RateLimited", "rate limit exceeded")
	ErrTooManyQuestions  = newError(KindPolicy, "TooManyQuestions", "too many questions created")
)

// Validation errors.
var (
	ErrInvalidPrice              = newError(KindValidation, "InvalidPrice", "invalid price")
	ErrInvalidKeyCount           = newError(KindValidation, "InvalidKeyCount", "invalid key count")
	ErrFeeTooHigh                = newError(KindValidation, "FeeTooHigh", "fee too high")
	ErrTotalFeeTooHigh           = newError(KindValidation, "TotalFeeTooHigh", "total fee percentage too high")
	ErrContentTooLong            = newError(KindValidation, "ContentTooLong", "content too long")
	ErrAnswerTooLong             = newError(KindValidation, "AnswerTooLong", "answer too long")
	ErrURITooLong                = newError(KindValidation, "UriTooLong", "uri too long")
	ErrInvalidCharacters         = newError(KindValidation, "InvalidCharacters", "invalid characters in input")
	ErrInvalidKeyLength          = newError(KindValidation, "InvalidKeyLength", "invalid encrypted key length")
	ErrInvalidMetadataFormat     = newError(KindValidation, "InvalidMetadataFormat", "invalid metadata format")
	ErrInvalidCIDFormat          = newError(KindValidation, "InvalidCidFormat", "invalid content identifier format")
	ErrInvalidContentReference   = newError(KindValidation, "InvalidContentReference", "invalid content reference")
	ErrContentLengthMismatch     = newError(KindValidation, "ContentLengthMismatch", "content length mismatch with validation")
	ErrAnswerLengthMismatch      = newError(KindValidation, "AnswerLengthMismatch", "answer length mismatch with validation")
	ErrContentHashMismatch       = newError(KindValidation, "ContentHashMismatch", "content hash mismatch with validation")
	ErrAnswerHashMismatch        = newError(KindValidation, "AnswerHashMismatch", "answer hash mismatch with validation")
	ErrInvalidValidatorSignature = newError(KindValidation, "InvalidValidatorSignature", "invalid validator signature")
	ErrInvalidIdentity           = newError(KindValidation, "InvalidIdentity", "invalid identity")
	ErrInvalidOperation          = newError(KindValidation, "InvalidOperation", "unknown operation kind")
)

// State errors, raised by lifecycle transitions.
var (
	ErrAlreadyInitialized = newError(KindState, "AlreadyInitialized", "already initialized")
	ErrQuestionInactive   = newError(KindState, "QuestionInactive", "question is inactive")
	ErrNoKeysAvailable    = newError(KindState, "NoKeysAvailable", "no keys available for this question")
	ErrNotKeyOwner        = newError(KindState, "NotKeyOwner", "not the key owner")
	ErrAlreadyListed      = newError(KindState, "AlreadyListed", "key is already listed")
	ErrNotListed          = newError(KindState, "NotListed", "key not listed for sale")
	ErrCannotBuyOwnKey    = newError(KindState, "CannotBuyOwnKey", "cannot buy your own key")
)

// Arithmetic errors.
var (
	ErrNumericalOverflow = newError(KindArithmetic, "NumericalOverflow", "numerical overflow occurred")
)

// External collaborator errors.
var (
	ErrInsufficientFunds  = newError(KindExternal, "InsufficientFunds", "insufficient funds for transaction")
	ErrTransferFailed     = newError(KindExternal, "TransferFailed", "token transfer failed")
	ErrRegistrationFailed = newError(KindExternal, "RegistrationFailed", "key token registration failed")
)

// Authorization and lookup errors.
var (
	ErrInvalidAuthority    = newError(KindAuthorization, "InvalidAuthority", "caller is not the marketplace authority")
	ErrMarketplaceNotFound = newError(KindNotFound, "MarketplaceNotFound", "marketplace not initialized")
	ErrUserStateNotFound   = newError(KindNotFound, "UserStateNotFound", "user state not found")
	ErrQuestionNotFound    = newError(KindNotFound, "QuestionNotFound", "question not found")
	ErrUnlockKeyNotFound   = newError(KindNotFound, "UnlockKeyNotFound", "unlock key not found")
)

// As returns the domain error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the domain error wrapped in err.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}
