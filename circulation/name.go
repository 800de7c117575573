/*
name.go - Borrower name normalization and candidate sets

PURPOSE:
  Loan records carry a free-text borrower name, not a student id. Matching a
  loan to a student is normalized-name equality against a candidate set of
  the surface forms staff have historically entered: "Name Surname", just
  "Name", or just "Surname".

LOCALE:
  Lowercasing is locale-aware for Turkish. A naive ASCII lowercase maps
  "İnci" to "İnci" unchanged and "IŞIL" to "iŞil"; the Turkish caser folds
  dotted İ to i and dotless I to ı, so the same student entered with
  different capitalization still matches.

ACCEPTED RISK:
  Surname-only candidates can collide across students sharing a surname.
  Resolving that needs a real student id on the loan record and is out of
  scope here; keeping the policy in this one file is what makes a later
  tightening cheap.

SEE ALSO:
  - selection.go, limit.go, counters.go: the match consumers
*/
package circulation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName trims, collapses internal whitespace runs to a single space
// and lowercases with Turkish casing rules. An empty or blank input yields ""
// which never matches anything.
func NormalizeName(value string) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	if collapsed == "" {
		return ""
	}
	// cases.Caser is stateful; build one per call rather than sharing.
	return cases.Lower(language.Turkish).String(collapsed)
}

// FullName joins name and surname into the display form, collapsing
// whitespace so partially-filled records still render cleanly.
func FullName(name, surname string) string {
	return strings.Join(strings.Fields(name+" "+surname), " ")
}

// SplitName separates a display name into first name and the rest, the
// convention the rest of the system assumes when only a free-text name is
// available: first word is the name, everything after it the surname.
func SplitName(display string) (name, surname string) {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NameSet is a set of normalized candidate names for one student.
type NameSet map[string]struct{}

func (s NameSet) add(normalized string) {
	if normalized != "" {
		s[normalized] = struct{}{}
	}
}

// Contains reports whether the (raw) name normalizes to a member of the set.
func (s NameSet) Contains(raw string) bool {
	_, ok := s[NormalizeName(raw)]
	return ok
}

// CandidateNames builds the set of acceptable surface forms for a student.
// The display name is always included; when structured student data is
// available the bare name, bare surname and "name surname" forms are added,
// tolerating however staff entered the borrower on old loan records.
func CandidateNames(displayName string, student *Student) NameSet {
	candidates := make(NameSet, 4)
	candidates.add(NormalizeName(displayName))

	if student != nil {
		candidates.add(NormalizeName(student.Name))
		candidates.add(NormalizeName(student.Surname))
		candidates.add(NormalizeName(student.Name + " " + student.Surname))
	}

	return candidates
}
