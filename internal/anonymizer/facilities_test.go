package anonymizer

import (
	"testing"

	"github.com/jojospausch-web/redact-clinical-german/internal/repository"
)

func testFacilityDB() *repository.FacilityDatabase {
	return &repository.FacilityDatabase{
		Universities: map[string]repository.FacilityEntry{
			"Universitätsklinikum Hamburg-Eppendorf": {
				Aliases: []string{"UK Eppendorf", "Uniklinik Eppendorf"},
				City:    "Hamburg",
			},
			"Medizinische Hochschule Hannover": {
				City: "Hannover",
			},
		},
		Abbreviations: map[string]string{
			"UKE": "Universitätsklinikum Hamburg-Eppendorf",
			"MHH": "Medizinische Hochschule Hannover",
		},
	}
}

func TestFindFacilities_Abbreviation(t *testing.T) {
	a := NewMedicalFacilityAnonymizer(testFacilityDB())

	matches := a.FindFacilities("Voraufenthalt im UKE im Jahr 2020")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	m := matches[0]
	if m.Text != "UKE" || m.Type != "MEDICAL_FACILITY" {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.FullName != "Universitätsklinikum Hamburg-Eppendorf" {
		t.Fatalf("expected full name resolved, got %s", m.FullName)
	}
}

func TestFindFacilities_AbbreviationCaseSensitive(t *testing.T) {
	a := NewMedicalFacilityAnonymizer(testFacilityDB())

	if matches := a.FindFacilities("Blutwerte: uke 12,3"); len(matches) != 0 {
		t.Fatalf("expected lowercase abbreviation ignored, got %v", matches)
	}
}

func TestFindFacilities_AliasCaseInsensitive(t *testing.T) {
	a := NewMedicalFacilityAnonymizer(testFacilityDB())

	matches := a.FindFacilities("behandelt in der UNIKLINIK EPPENDORF")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	if matches[0].City != "Hamburg" {
		t.Fatalf("expected owning city Hamburg, got %s", matches[0].City)
	}
}

func TestFindFacilities_DuplicateSpanKeptOnce(t *testing.T) {
	db := testFacilityDB()
	db.Universities["MHH Hannover"] = repository.FacilityEntry{
		Aliases: []string{"Medizinische Hochschule Hannover"},
		City:    "Hannover",
	}
	a := NewMedicalFacilityAnonymizer(db)

	matches := a.FindFacilities("verlegt aus der Medizinische Hochschule Hannover")
	count := 0
	for _, m := range matches {
		if m.Text == "Medizinische Hochschule Hannover" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected span reported once, got %d in %v", count, matches)
	}
}

func TestFindFacilities_EmptyDatabase(t *testing.T) {
	a := NewMedicalFacilityAnonymizer(&repository.FacilityDatabase{
		Universities:  map[string]repository.FacilityEntry{},
		Abbreviations: map[string]string{},
	})

	if matches := a.FindFacilities("Universitätsklinikum Hamburg-Eppendorf"); len(matches) != 0 {
		t.Fatalf("expected no matches, got %v", matches)
	}
}
