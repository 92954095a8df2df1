package ocrauth

// AuthResult defines a public type used by ocrauth APIs.
//
// AuthResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthResult int

const (
	// AuthResultInvalidRequest is an exported constant or variable used by the authentication engine.
	AuthResultInvalidRequest AuthResult = iota + 1
	// AuthResultAuthenticated is an exported constant or variable used by the authentication engine.
	AuthResultAuthenticated
	// AuthResultInvalidResponse is an exported constant or variable used by the authentication engine.
	AuthResultInvalidResponse
	// AuthResultInvalidChallenge is an exported constant or variable used by the authentication engine.
	AuthResultInvalidChallenge
	// AuthResultInvalidUserID is an exported constant or variable used by the authentication engine.
	AuthResultInvalidUserID
)

// String describes the string operation and its observable behavior.
func (r AuthResult) String() string {
	switch r {
	case AuthResultInvalidRequest:
		return "INVALID_REQUEST"
	case AuthResultAuthenticated:
		return "AUTHENTICATED"
	case AuthResultInvalidResponse:
		return "INVALID_RESPONSE"
	case AuthResultInvalidChallenge:
		return "INVALID_CHALLENGE"
	case AuthResultInvalidUserID:
		return "INVALID_USERID"
	default:
		return "UNKNOWN"
	}
}

// EnrollmentStatus defines a public type used by ocrauth APIs.
//
// EnrollmentStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnrollmentStatus int

const (
	// EnrollmentIdle is an exported constant or variable used by the authentication engine.
	EnrollmentIdle EnrollmentStatus = iota + 1
	// EnrollmentInitialized is an exported constant or variable used by the authentication engine.
	EnrollmentInitialized
	// EnrollmentRetrieved is an exported constant or variable used by the authentication engine.
	EnrollmentRetrieved
	// EnrollmentProcessed is an exported constant or variable used by the authentication engine.
	EnrollmentProcessed
	// EnrollmentValidated is reserved for flows that confirm the secret before finalization.
	EnrollmentValidated
	// EnrollmentFinalized is an exported constant or variable used by the authentication engine.
	EnrollmentFinalized
)

// String describes the string operation and its observable behavior.
func (s EnrollmentStatus) String() string {
	switch s {
	case EnrollmentIdle:
		return "IDLE"
	case EnrollmentInitialized:
		return "INITIALIZED"
	case EnrollmentRetrieved:
		return "RETRIEVED"
	case EnrollmentProcessed:
		return "PROCESSED"
	case EnrollmentValidated:
		return "VALIDATED"
	case EnrollmentFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// ServiceMetadata defines a public type used by ocrauth APIs.
//
// The JSON field names match what provisioning clients expect when they
// download enrollment metadata.
type ServiceMetadata struct {
	DisplayName       string `json:"displayName"`
	Identifier        string `json:"identifier"`
	LogoURL           string `json:"logoUrl,omitempty"`
	InfoURL           string `json:"infoUrl,omitempty"`
	AuthenticationURL string `json:"authenticationUrl"`
	OCRASuite         string `json:"ocraSuite"`
	EnrollmentURL     string `json:"enrollmentUrl"`
}

// IdentityMetadata defines a public type used by ocrauth APIs.
type IdentityMetadata struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
}

// EnrollmentMetadata defines a public type used by ocrauth APIs.
//
// EnrollmentMetadata instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnrollmentMetadata struct {
	Service  ServiceMetadata  `json:"service"`
	Identity IdentityMetadata `json:"identity"`
}
