package patients

import (
	"strings"
	"testing"
)

func TestBriefingIncludesPatientContext(t *testing.T) {
	p := Patient{
		Name:           "Maria Ionescu",
		Age:            "73",
		Address:        "12 Strada Lunga",
		MedicalHistory: "hypertension",
		CaretakerName:  "Andrei Ionescu",
		CaretakerPhone: "+40700000000",
	}

	got := Briefing(p, "seizure", "Central Park, north entrance")
	for _, want := range []string{
		"Maria Ionescu",
		"73",
		"seizure",
		"Central Park, north entrance",
		"12 Strada Lunga",
		"hypertension",
		"Andrei Ionescu",
		"+40700000000",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("briefing missing %q:\n%s", want, got)
		}
	}
}

func TestBriefingWithoutLocationFallsBackToAddress(t *testing.T) {
	p := Patient{Name: "Maria", Age: "73", Address: "12 Strada Lunga"}
	got := Briefing(p, "faint", "")
	if strings.Contains(got, "The incident location is") {
		t.Fatalf("briefing should omit the location sentence when none is known:\n%s", got)
	}
	if !strings.Contains(got, "12 Strada Lunga") {
		t.Fatalf("briefing should carry the home address fallback:\n%s", got)
	}
}

func TestGenericBriefing(t *testing.T) {
	got := GenericBriefing("faint", "45.75,21.22")
	if !strings.Contains(got, "faint") || !strings.Contains(got, "45.75,21.22") {
		t.Fatalf("generic briefing missing incident details:\n%s", got)
	}
	if !strings.Contains(got, "records are currently unavailable") {
		t.Fatalf("generic briefing should flag missing records:\n%s", got)
	}
}

func TestCaretakerNotification(t *testing.T) {
	p := Patient{Name: "Maria", CaretakerName: "Andrei"}
	got := CaretakerNotification(p, "seizure", "12 Strada Lunga")
	for _, want := range []string{"Andrei", "Maria", "seizure", "12 Strada Lunga"} {
		if !strings.Contains(got, want) {
			t.Fatalf("notification missing %q:\n%s", want, got)
		}
	}
}
