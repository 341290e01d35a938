package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Credential derivation for new employees. These run explicitly in the
// create path so each rule stays testable on its own.

// DeriveStaffCode builds the unique employee code from the assigned user id.
func DeriveStaffCode(userID int) string {
	return fmt.Sprintf("SD%04d", userID)
}

// DeriveUsername builds the base username: lower-cased first name followed
// by the initial of every word of the last name, so "Binh" + "Nguyen Van"
// gives "binhnv". Collisions get a numeric suffix appended by the caller.
func DeriveUsername(firstName, lastName string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(firstName)))

	// first rune, not first byte, or multibyte initials get mangled
	for _, word := range strings.Fields(lastName) {
		initial, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToLower(initial))
	}

	return b.String()
}

// DeriveInitialPassword composes the first-login password from the username
// and the date of birth: <username>@ddmmyyyy.
func DeriveInitialPassword(username string, dateOfBirth time.Time) string {
	return fmt.Sprintf("%s@%s", username, dateOfBirth.Format("02012006"))
}
