package consistency

import (
	"fmt"
	"strings"
	"time"
)

// BrokenRelationship is a source record whose foreign key matches no target
// record.
type BrokenRelationship struct {
	RelationshipID string
	SourceEntity   string
	SourceID       string
	Field          string
	Value          string
}

// OrphanedRecord is a target record no source record references.
type OrphanedRecord struct {
	RelationshipID string
	Entity         string
	ID             string
}

// DuplicateKey is a primary key shared by more than one target record.
// Each key is reported once.
type DuplicateKey struct {
	RelationshipID string
	Entity         string
	Key            string
	Occurrences    int
}

// Result is the outcome of validating one relationship. IsValid is false when
// any finding was recorded or a dataset could not be loaded.
type Result struct {
	RelationshipID      string
	IsValid             bool
	BrokenRelationships []BrokenRelationship
	OrphanedRecords     []OrphanedRecord
	DuplicateKeys       []DuplicateKey
	Warnings            []string
	// OrphansChecked reports whether orphan detection ran.
	OrphansChecked bool
	CheckedAt      time.Time
}

// Findings is the number of broken, orphaned and duplicate findings.
func (r Result) Findings() int {
	return len(r.BrokenRelationships) + len(r.OrphanedRecords) + len(r.DuplicateKeys)
}

// Report aggregates the results of every declared relationship.
type Report struct {
	ID                  string
	TotalRelationships  int
	ValidRelationships  int
	BrokenRelationships int
	OrphanedRecords     int
	DuplicateKeys       int
	LastChecked         time.Time
	Recommendations     []string
	Results             []Result
}

func priority(findings int) string {
	switch {
	case findings >= 10:
		return "critical"
	case findings >= 3:
		return "high"
	default:
		return "low"
	}
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// recommend describes the remediation for one relationship, or "" when it
// has no findings.
func recommend(rel Relationship, res Result) string {
	findings := res.Findings()
	if findings == 0 {
		return ""
	}
	var actions []string
	if n := len(res.BrokenRelationships); n > 0 {
		actions = append(actions, fmt.Sprintf("repair %s in %s.%s that match no %s.%s",
			plural(n, "reference", "references"), rel.SourceEntity, rel.SourceField, rel.TargetEntity, rel.TargetField))
	}
	if n := len(res.DuplicateKeys); n > 0 {
		actions = append(actions, fmt.Sprintf("merge or rename %s in %s",
			plural(n, "duplicated key", "duplicated keys"), rel.TargetEntity))
	}
	if n := len(res.OrphanedRecords); n > 0 {
		actions = append(actions, fmt.Sprintf("review %s never referenced by %s",
			plural(n, rel.TargetEntity+" record", rel.TargetEntity+" records"), rel.SourceEntity))
	}
	return fmt.Sprintf("[%s] %s: %s", priority(findings), rel.ID, strings.Join(actions, "; "))
}
