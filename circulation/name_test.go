package circulation_test

import (
	"testing"

	"github.com/kutuphane/circulation-engine/circulation"
)

func TestNormalizeName_CollapsesWhitespaceAndLowercases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Ayşe   Yılmaz ", "ayşe yılmaz"},
		{"Mehmet\tDemir", "mehmet demir"},
		{"ali", "ali"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := circulation.NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeName_TurkishCaseFolding(t *testing.T) {
	// Dotted capital İ must fold to i, dotless capital I to ı. An ASCII
	// lowercase gets both wrong and breaks matching for names like İnci.
	cases := []struct {
		in   string
		want string
	}{
		{"İnci", "inci"},
		{"IŞIL", "ışıl"},
		{"Iğdır", "ığdır"},
		{"DİLEK", "dilek"},
	}

	for _, tc := range cases {
		if got := circulation.NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCandidateNames_IncludesAllObservedForms(t *testing.T) {
	// GIVEN: a student record and the display name used on screen
	student := &circulation.Student{Name: "Ayşe", Surname: "Yılmaz"}

	// WHEN: building the candidate set
	candidates := circulation.CandidateNames("Ayşe Yılmaz", student)

	// THEN: full name, bare name and bare surname all match
	for _, form := range []string{"Ayşe Yılmaz", "ayşe yılmaz", "AYŞE YILMAZ", "Ayşe", "Yılmaz", "  ayşe   yılmaz "} {
		if !candidates.Contains(form) {
			t.Errorf("candidate set should contain %q", form)
		}
	}
	if candidates.Contains("Fatma Yıldız") {
		t.Error("candidate set should not match a different student")
	}
}

func TestCandidateNames_DisplayNameOnly(t *testing.T) {
	// Without structured student data only the display name is a candidate.
	candidates := circulation.CandidateNames("Mehmet Demir", nil)

	if !candidates.Contains("mehmet demir") {
		t.Error("display name should be a candidate")
	}
	if candidates.Contains("mehmet") {
		t.Error("bare name requires structured student data")
	}
}

func TestCandidateNames_BlankNamesNeverMatch(t *testing.T) {
	candidates := circulation.CandidateNames("", &circulation.Student{})

	if len(candidates) != 0 {
		t.Errorf("expected empty candidate set, got %d entries", len(candidates))
	}
	if candidates.Contains("") {
		t.Error("empty borrower must never match")
	}
}

func TestFullName(t *testing.T) {
	if got := circulation.FullName(" Ayşe ", " Yılmaz "); got != "Ayşe Yılmaz" {
		t.Errorf("FullName = %q, want %q", got, "Ayşe Yılmaz")
	}
	if got := circulation.FullName("Ali", ""); got != "Ali" {
		t.Errorf("FullName with empty surname = %q, want %q", got, "Ali")
	}
}
