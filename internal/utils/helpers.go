// Package utils provides helpers shared across handlers, services and
// middleware: response writers, error mapping, validation, logging and a
// handful of string utilities.
package utils

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// FormatInt64 formats an int64 as a base 10 string.
func FormatInt64(i int64) string {
	return strconv.FormatInt(i, 10)
}

// TruncateString shortens s to at most maxLen bytes, ending it with an
// ellipsis when anything was cut.
//
// Parameters:
//   - s: the string to truncate
//   - maxLen: the maximum length of the result, ellipsis included
//
// Returns:
//   - the truncated string
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// MaskEmail masks the user part of an email address, showing only the first
// and last character. "user@example.com" becomes "u**r@example.com".
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	user := parts[0]
	if len(user) <= 2 {
		return email
	}

	return string(user[0]) + strings.Repeat("*", len(user)-2) + string(user[len(user)-1]) + "@" + parts[1]
}

// SanitizeKeys returns a copy of data with credential fields redacted,
// descending into nested maps.
func SanitizeKeys(data map[string]interface{}) map[string]interface{} {
	sensitiveKeys := map[string]bool{
		constants.ColumnPasswordHash: true,
		constants.ColumnSalt:         true,
		"password":                   true,
		"confirm_password":           true,
		"current_password":           true,
		"new_password":               true,
		"token":                      true,
		"access_token":               true,
		"refresh_token":              true,
		"secret":                     true,
	}

	result := make(map[string]interface{}, len(data))

	for k, v := range data {
		if sensitiveKeys[strings.ToLower(k)] {
			result[k] = constants.LogRedactedValue
			continue
		}

		switch nested := v.(type) {
		case map[string]interface{}:
			result[k] = SanitizeKeys(nested)
		case []map[string]interface{}:
			sanitized := make([]map[string]interface{}, len(nested))
			for i, m := range nested {
				sanitized[i] = SanitizeKeys(m)
			}
			result[k] = sanitized
		default:
			result[k] = v
		}
	}

	return result
}

// ClientIP returns the host part of the request's remote address. chi's
// RealIP middleware has already applied forwarding headers when enabled.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
