package sanitize

import "regexp"

// Email biasa (case-insensitive)
var reEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)

// Telepon yang umum: +xx..., (xxx) xxx-xxxx, 08xx..., dsb.
// Minimal 9 digit total agar tidak terlalu agresif.
var rePhone = regexp.MustCompile(`\+?\d[\d\s\-\.\(\)]{7,}\d`)

// NIK: 16 digit berturut-turut.
var reNIK = regexp.MustCompile(`\b\d{16}\b`)

func RedactPII(s string) string {
	if s == "" {
		return s
	}
	s = reEmail.ReplaceAllString(s, "[redacted email]")
	s = reNIK.ReplaceAllString(s, "[redacted id]")
	s = rePhone.ReplaceAllString(s, "[redacted phone]")
	return s
}

// Potong ringkasan untuk listing
func Summary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && i < len(s) && s[i] != ' ' {
		i--
	}
	if i <= 0 {
		i = max
	}
	return s[:i] + "…"
}
