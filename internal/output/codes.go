// Package output provides JSON/YAML/Markdown output formatting and error handling.
package output

// Exit codes are part of the CLI contract; scripts branch on them.
const (
	ExitOK        = 0
	ExitUsage     = 1 // bad arguments, flags or configuration
	ExitNotFound  = 2
	ExitAuth      = 3 // no credentials, or the refresh was rejected
	ExitForbidden = 4
	ExitRateLimit = 5
	ExitNetwork   = 6 // transport failure or timeout
	ExitAPI       = 7 // any other non-2xx response
)

// Envelope "code" values.
const (
	CodeUsage     = "usage"
	CodeNotFound  = "not_found"
	CodeAuth      = "auth_required"
	CodeForbidden = "forbidden"
	CodeRateLimit = "rate_limit"
	CodeNetwork   = "network"
	CodeAPI       = "api_error"
)

var exitByCode = map[string]int{
	CodeUsage:     ExitUsage,
	CodeNotFound:  ExitNotFound,
	CodeAuth:      ExitAuth,
	CodeForbidden: ExitForbidden,
	CodeRateLimit: ExitRateLimit,
	CodeNetwork:   ExitNetwork,
	CodeAPI:       ExitAPI,
}

// ExitCodeFor maps an envelope code to its process exit code. Unknown codes
// exit as API errors.
func ExitCodeFor(code string) int {
	if exit, ok := exitByCode[code]; ok {
		return exit
	}
	return ExitAPI
}
