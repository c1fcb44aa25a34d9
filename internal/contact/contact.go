package contact

import (
	"github.com/go-playground/validator/v10"
	"net"
	"net/http"
	"strings"
)

// MinMobileLength is the minimum amount of characters a (normalized) mobile number has to consist of
const MinMobileLength = 10

var (
	validate = validator.New()

	mobileBlanks = strings.NewReplacer(" ", "", ".", "", ",", "", "(", "", ")", "", "-", "")
)

// ValidateEmail checks whether the given string is a syntactically valid email address
func ValidateEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// NormalizeMobile removes all blanks (spaces, dots, commas, parentheses and dashes) out of a mobile number
func NormalizeMobile(mobile string) string {
	return mobileBlanks.Replace(mobile)
}

// ValidateMobile checks whether the given string may be a mobile number
func ValidateMobile(mobile string) bool {
	return len(mobile) >= MinMobileLength
}

// ClientIP extracts the IP address of the client that sent the given request.
// The first entry of the 'X-Forwarded-For' header takes precedence over the remote address of the connection.
func ClientIP(request *http.Request) string {
	if forwarded := request.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
