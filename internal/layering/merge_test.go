package layering

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type cacheSettings struct {
	TTL        time.Duration
	MaxEntries int
}

type settings struct {
	DataDir   string
	Cache     cacheSettings
	Enabled   *bool
	Labels    map[string]string
	Relations []string
}

func boolPtr(v bool) *bool { return &v }

func TestMergeFillsZeroFieldsFromWeakerLayers(t *testing.T) {
	defaults := settings{
		DataDir:   "data",
		Cache:     cacheSettings{TTL: 5 * time.Minute, MaxEntries: 256},
		Enabled:   boolPtr(true),
		Labels:    map[string]string{"empty": "No options", "loading": "Loading..."},
		Relations: []string{"politician-party"},
	}
	file := settings{
		Cache:   cacheSettings{MaxEntries: 32},
		Enabled: boolPtr(false),
		Labels:  map[string]string{"empty": "Nothing here"},
	}

	got := Merge(file, defaults)
	want := settings{
		DataDir:   "data",
		Cache:     cacheSettings{TTL: 5 * time.Minute, MaxEntries: 32},
		Enabled:   boolPtr(false),
		Labels:    map[string]string{"empty": "Nothing here", "loading": "Loading..."},
		Relations: []string{"politician-party"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}

	got.Labels["loading"] = "changed"
	got.Relations[0] = "changed"
	if defaults.Labels["loading"] != "Loading..." || defaults.Relations[0] != "politician-party" {
		t.Fatalf("merge must not alias its inputs")
	}
}

func TestMergeStrongestWins(t *testing.T) {
	got := Merge(
		settings{DataDir: "override"},
		settings{DataDir: "file", Cache: cacheSettings{MaxEntries: 8}},
		settings{DataDir: "default", Cache: cacheSettings{MaxEntries: 256, TTL: time.Minute}},
	)
	if got.DataDir != "override" || got.Cache.MaxEntries != 8 || got.Cache.TTL != time.Minute {
		t.Fatalf("unexpected merge %+v", got)
	}
}

func TestMergeZeroInput(t *testing.T) {
	var zero cacheSettings
	if got := Merge[cacheSettings](); got != zero {
		t.Fatalf("expected zero value, got %+v", got)
	}
}
