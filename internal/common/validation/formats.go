package validation

import (
	"regexp"
	"strings"
	"time"
)

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern     = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

	separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// DateLayout is the accepted date-of-birth format.
const DateLayout = "2006-01-02"

// NormalizePAN upper-cases and trims a PAN and reports whether it is well formed.
func NormalizePAN(pan string) (string, bool) {
	p := strings.ToUpper(strings.TrimSpace(pan))
	return p, panPattern.MatchString(p)
}

// NormalizeAadhaar strips spaces and dashes from a 12-digit Aadhaar number.
func NormalizeAadhaar(aadhaar string) (string, bool) {
	a := separators.Replace(strings.TrimSpace(aadhaar))
	return a, aadhaarPattern.MatchString(a)
}

// NormalizeMobile reduces an Indian mobile number to its 10 significant digits.
func NormalizeMobile(phone string) (string, bool) {
	p := separators.Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(p, "+91") && len(p) == 13:
		p = p[3:]
	case strings.HasPrefix(p, "91") && len(p) == 12:
		p = p[2:]
	case strings.HasPrefix(p, "0") && len(p) == 11:
		p = p[1:]
	}
	return p, mobilePattern.MatchString(p)
}

// NormalizeIFSC upper-cases an IFSC code and checks its shape.
func NormalizeIFSC(ifsc string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(ifsc))
	return c, ifscPattern.MatchString(c)
}

func ValidatePincode(pincode string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(pincode))
}

func ValidateAccountNumber(account string) bool {
	return accountPattern.MatchString(strings.TrimSpace(account))
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidateURL validates document URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(strings.TrimSpace(url))
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeOn returns the whole years between dob and at.
func AgeOn(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}
	return years
}
