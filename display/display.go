// ABOUTME: Pure helpers deriving display text from contacts and errors
// ABOUTME: Initials for avatars and user-facing error messages
package display

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/harperreed/ringbook/api"
)

const (
	InvalidDataMessage  = "Invalid data. Check the required fields."
	ServerErrorMessage  = "Internal server error. Please try again later."
	GenericErrorMessage = "Something went wrong. Please try again."
)

// GenerateInitials returns the upper-cased first letters of the first two words.
func GenerateInitials(fullName string) string {
	words := strings.Fields(fullName)
	var b strings.Builder
	for i, w := range words {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteString(strings.ToUpper(string(r)))
	}
	return b.String()
}

// ErrorMessage turns an error from the API layer into text for the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return GenericErrorMessage
	}

	if msg := fieldMessages(apiErr.Data.Errors); msg != "" {
		return msg
	}

	switch {
	case apiErr.Status == http.StatusUnprocessableEntity:
		return InvalidDataMessage
	case apiErr.Status >= http.StatusInternalServerError:
		return ServerErrorMessage
	}
	return GenericErrorMessage
}

// Describe is ErrorMessage for API failures and the error's own text for
// anything that never reached the server.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := api.AsError(err); ok {
		return ErrorMessage(err)
	}
	return err.Error()
}

func fieldMessages(fields api.FieldErrors) string {
	var parts []string
	for _, f := range fields {
		for _, m := range f.Messages {
			if strings.TrimSpace(m) != "" {
				parts = append(parts, m)
				break
			}
		}
	}
	return strings.Join(parts, ". ")
}
