package datasets

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordsAcceptsDecodedAndGoBuiltLists(t *testing.T) {
	decoded := map[string]any{
		"topicTrends": []any{
			map[string]any{"id": "T1", "topicName": "Fuel subsidy"},
		},
	}
	records, err := Records(KeyTopics, decoded)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0]["id"] != "T1" {
		t.Fatalf("unexpected records %v", records)
	}

	built := map[string]any{
		"parties": []map[string]any{{"id": "P1"}, {"id": "P2"}},
	}
	records, err = Records(KeyParties, built)
	if err != nil || len(records) != 2 {
		t.Fatalf("expected 2 records, got %d err=%v", len(records), err)
	}
}

func TestRecordsErrors(t *testing.T) {
	if _, err := Records(KeyStates, map[string]any{}); !errors.Is(err, ErrMissingRoot) {
		t.Fatalf("expected ErrMissingRoot, got %v", err)
	}
	if _, err := Records(KeyStates, map[string]any{"states": "nope"}); err == nil {
		t.Fatalf("expected error for non-list root")
	}
	if _, err := Records(KeyStates, map[string]any{"states": []any{"nope"}}); err == nil {
		t.Fatalf("expected error for non-object record")
	}
}

func TestDecodeAllPoliticians(t *testing.T) {
	payload := map[string]any{
		"politicians": []any{
			map[string]any{
				"id":        "X1",
				"firstName": "Ada",
				"lastName":  "Obi",
				"partyId":   "P1",
				"metadata":  map[string]any{"isActive": false, "verificationStatus": "verified"},
			},
		},
	}

	got, err := DecodeAll[Politician](KeyPoliticians, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	inactive := false
	want := []Politician{{
		ID:        "X1",
		FirstName: "Ada",
		LastName:  "Obi",
		PartyID:   "P1",
		Metadata:  PoliticianMetadata{IsActive: &inactive, VerificationStatus: "verified"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("politicians mismatch (-want +got):\n%s", diff)
	}
	if got[0].DisplayName() != "Ada Obi" {
		t.Fatalf("unexpected display name %q", got[0].DisplayName())
	}
}

func TestDecodeStateConvertsNumbers(t *testing.T) {
	state, err := Decode[State](KeyStates, 0, map[string]any{
		"id":          "NG-LA",
		"name":        "Lagos",
		"population":  float64(15000000),
		"coordinates": map[string]any{"latitude": 6.5, "longitude": 3.4},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Population != 15000000 || state.Coordinates.Latitude != 6.5 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestDecodeTreatsMistypedOptionalFieldsAsAbsent(t *testing.T) {
	tests := []struct {
		name       string
		population any
	}{
		{name: "numeric string", population: "15000000"},
		{name: "fractional", population: 15000000.5},
		{name: "object", population: map[string]any{"value": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := Decode[State](KeyStates, 0, map[string]any{
				"id":          "NG-LA",
				"name":        "Lagos",
				"population":  tt.population,
				"coordinates": map[string]any{"latitude": 6.5, "longitude": 3.4},
			}, "id", "name")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := State{ID: "NG-LA", Name: "Lagos", Coordinates: Coordinates{Latitude: 6.5, Longitude: 3.4}}
			if diff := cmp.Diff(want, state); diff != "" {
				t.Fatalf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := Decode[State](KeyStates, 2, map[string]any{"id": 7, "name": "Lagos"}, "id", "name"); err == nil {
		t.Fatalf("expected a mistyped identity field to fail the record")
	}
}

func TestLookupAndKeyString(t *testing.T) {
	record := map[string]any{
		"id":       float64(42),
		"metadata": map[string]any{"partyId": "P1", "empty": nil},
	}
	if v, ok := Lookup(record, "metadata.partyId"); !ok || v != "P1" {
		t.Fatalf("expected nested lookup, got %v %v", v, ok)
	}
	if _, ok := Lookup(record, "metadata.empty"); ok {
		t.Fatalf("expected nil value to report missing")
	}
	if _, ok := Lookup(record, "id.value"); ok {
		t.Fatalf("expected lookup through scalar to fail")
	}
	if KeyString(record["id"]) != "42" || KeyString(42) != "42" || KeyString(1.5) != "1.5" {
		t.Fatalf("unexpected key strings")
	}
}
