package errorx

type Code int

// Unknown hides the details of an infrastructure failure from the caller. The details are
// logged where the failure happens.
var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest      Code = 100001
	NotFound        Code = 100004
	AlreadyExists   Code = 100006
	TooManyRequests Code = 100010

	// Token codes
	TokenExpired Code = 200002
	TokenInvalid Code = 200003
	TokenRevoked Code = 200004
)
