package http

// Reason codes carried in the "error" field of error responses.
const (
	ReasonNotAuthenticated  = "not_authenticated"
	ReasonCredentialInvalid = "credential_invalid"
	ReasonIssuerUnreachable = "issuer_unreachable"
	ReasonStorageRejected   = "storage_unavailable"
	ReasonNotFound          = "not_found"
	ReasonInvalidInput      = "invalid_input"
	ReasonTooLarge          = "too_large"
	ReasonInternal          = "internal_error"
)
