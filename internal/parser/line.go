package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
)

// A statement line reads left to right as
//
//	DATE DESCRIPTION DIRECTION ₹AMOUNT
//
// e.g. "Oct 30, 2025 Paid to John Doe CREDIT ₹1,500". Each token has its own
// pattern so it can be tested alone. The day must be zero-padded and the
// month written as "Oct"; other widths are skipped, not matched loosely.
//
// Separators are any Unicode space, not only ASCII whitespace: text layers
// often carry U+00A0 between the direction word and the rupee sign.
const sep = `[\s\p{Zs}]`

var (
	// Date at the start of the line, followed by exactly one separator rune.
	dateToken = regexp.MustCompile(`^([A-Z][a-z]{2}` + sep + `\d{2},` + sep + `\d{4})` + sep)
	// Rupee amount at the end of the line. Integer part only.
	amountToken = regexp.MustCompile(sep + `+₹([\d,]+)$`)
	// Direction as the last word before the amount.
	directionToken = regexp.MustCompile(sep + `+(CREDIT|DEBIT)$`)
)

// matchDate splits a leading date token off line.
func matchDate(line string) (date, rest string, ok bool) {
	loc := dateToken.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", "", false
	}
	return line[loc[2]:loc[3]], line[loc[1]:], true
}

// matchAmount splits a trailing amount token off s and returns its digits.
func matchAmount(s string) (head, digits string, ok bool) {
	loc := amountToken.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", "", false
	}
	return s[:loc[0]], s[loc[2]:loc[3]], true
}

// matchDirection splits a trailing CREDIT/DEBIT word off s.
func matchDirection(s string) (head string, dir models.Direction, ok bool) {
	loc := directionToken.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", "", false
	}
	return s[:loc[0]], models.Direction(s[loc[2]:loc[3]]), true
}

// ExtractLine recognises one transaction line. Headers, footers and wrapped
// continuation text return ok == false.
func ExtractLine(line string) (txn models.Transaction, ok bool) {
	line = strings.TrimSuffix(line, "\r")

	date, rest, ok := matchDate(line)
	if !ok {
		return models.Transaction{}, false
	}
	head, digits, ok := matchAmount(rest)
	if !ok {
		return models.Transaction{}, false
	}
	desc, dir, ok := matchDirection(head)
	if !ok {
		return models.Transaction{}, false
	}

	return models.Transaction{
		Date:        date,
		Description: strings.TrimSpace(desc),
		Direction:   dir,
		Amount:      NormalizeAmount(digits),
	}, true
}

// startsWithDate checks if a line begins with a statement date token.
func startsWithDate(line string) bool {
	return dateToken.MatchString(line)
}
