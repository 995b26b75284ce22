package requests

// IssueRequest represents a key issuance request from the chat-command
// surface. Authorizing the issuer is the caller's responsibility.
type IssueRequest struct {
	Duration   string `json:"duration" binding:"required"`
	CreatedBy  string `json:"created_by" binding:"required"`
	AssignedTo string `json:"assigned_to"`
}

// ValidateRequest represents a validation exchange from the web front
// end. Fingerprint is raw, not yet hashed.
type ValidateRequest struct {
	Key         string `json:"key" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}
