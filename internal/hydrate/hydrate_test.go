package hydrate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type party struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Colors       struct {
		Primary string `json:"primary"`
	} `json:"colors"`
	Founded int `json:"founded"`
}

func TestDecodeRecord(t *testing.T) {
	record := map[string]any{
		"id":           "P1",
		"name":         "Unity Party",
		"abbreviation": "UP",
		"colors":       map[string]any{"primary": "#00ff00"},
		"founded":      float64(1998),
	}

	got, err := Decode[party](Ref{Dataset: "parties"}, record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := party{ID: "P1", Name: "Unity Party", Abbreviation: "UP", Founded: 1998}
	want.Colors.Primary = "#00ff00"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
	}
}

func TestTrimStringsLeavesInputUntouched(t *testing.T) {
	record := map[string]any{
		"id":     " P1 ",
		"name":   "\tUnity Party\n",
		"colors": map[string]any{"primary": " red "},
		"tags":   []any{" a ", 3},
	}

	got, err := Decode[party](Ref{Dataset: "parties"}, record, TrimStrings)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "P1" || got.Name != "Unity Party" || got.Colors.Primary != "red" {
		t.Fatalf("expected trimmed values, got %+v", got)
	}
	if record["id"] != " P1 " {
		t.Fatalf("expected input untouched, got %q", record["id"])
	}
	if record["colors"].(map[string]any)["primary"] != " red " {
		t.Fatalf("expected nested input untouched")
	}
	if record["tags"].([]any)[0] != " a " {
		t.Fatalf("expected list input untouched")
	}
}

func TestDecodeErrorsCarryRef(t *testing.T) {
	_, err := Decode[party](Ref{Dataset: "parties", Index: 3}, nil)
	if err == nil || !strings.Contains(err.Error(), "parties[3]") {
		t.Fatalf("expected ref in error, got %v", err)
	}

	_, err = Decode[party](Ref{Dataset: "parties", Index: 1}, map[string]any{"founded": "long ago"})
	if err == nil || !strings.Contains(err.Error(), "parties[1]") {
		t.Fatalf("expected type error with ref, got %v", err)
	}
}

func TestDecodeLenientDropsMistypedOptionalFields(t *testing.T) {
	tests := []struct {
		name        string
		record      map[string]any
		want        party
		wantDropped []string
		wantErr     bool
	}{
		{
			name:   "clean record",
			record: map[string]any{"id": "P1", "name": "Unity Party", "founded": float64(1998)},
			want:   party{ID: "P1", Name: "Unity Party", Founded: 1998},
		},
		{
			name:        "numeric string",
			record:      map[string]any{"id": "P1", "name": "Unity Party", "founded": "1998"},
			want:        party{ID: "P1", Name: "Unity Party"},
			wantDropped: []string{"founded"},
		},
		{
			name:        "fractional number into int",
			record:      map[string]any{"id": "P1", "name": "Unity Party", "founded": 1998.5},
			want:        party{ID: "P1", Name: "Unity Party"},
			wantDropped: []string{"founded"},
		},
		{
			name: "nested field",
			record: map[string]any{
				"id": "P1", "name": "Unity Party", "abbreviation": "UP",
				"colors": map[string]any{"primary": 7},
			},
			want:        party{ID: "P1", Name: "Unity Party", Abbreviation: "UP"},
			wantDropped: []string{"colors.primary"},
		},
		{
			name:    "mistyped identity",
			record:  map[string]any{"id": 12, "name": "Unity Party"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped, err := DecodeLenient[party](Ref{Dataset: "parties"}, tt.record, []string{"id", "name"})
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "parties[0]") {
					t.Fatalf("expected identity error with ref, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDropped, dropped); diff != "" {
				t.Fatalf("dropped fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLenientLeavesInputUntouched(t *testing.T) {
	record := map[string]any{"id": "P1", "name": "Unity Party", "founded": "1998"}
	if _, _, err := DecodeLenient[party](Ref{Dataset: "parties"}, record, nil); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["founded"] != "1998" {
		t.Fatalf("expected input untouched, got %v", record)
	}
}
