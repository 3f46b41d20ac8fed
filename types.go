package choices

import (
	"fmt"
	"strings"
	"time"
)

// DataQuality is the completeness tier of the record an option was derived
// from.
type DataQuality string

const (
	QualityPoor      DataQuality = "poor"
	QualityFair      DataQuality = "fair"
	QualityGood      DataQuality = "good"
	QualityExcellent DataQuality = "excellent"
)

// Rank orders the tiers from poor (0) to excellent (3). Unknown tiers rank
// below poor.
func (q DataQuality) Rank() int {
	switch q {
	case QualityPoor:
		return 0
	case QualityFair:
		return 1
	case QualityGood:
		return 2
	case QualityExcellent:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether q is the same tier as min or better.
func (q DataQuality) AtLeast(min DataQuality) bool {
	return q.Rank() >= min.Rank()
}

// ParseQuality converts a configuration string into a DataQuality.
func ParseQuality(value string) (DataQuality, error) {
	q := DataQuality(strings.ToLower(strings.TrimSpace(value)))
	if q.Rank() < 0 {
		return "", fmt.Errorf("choices: unknown data quality %q", value)
	}
	return q, nil
}

// LoadingState tracks the lifecycle of a category or dropdown.
type LoadingState string

const (
	StateIdle    LoadingState = "idle"
	StateLoading LoadingState = "loading"
	StateSuccess LoadingState = "success"
	StateError   LoadingState = "error"
)

// FilterOption is one selectable value derived from a raw record.
type FilterOption struct {
	Value       string
	Label       string
	Count       int64
	Color       string
	Description string
	// Metadata holds the source specific fields of the record.
	Metadata OptionMetadata
	// Extra carries string attributes for sources without typed metadata.
	Extra       map[string]string
	IsAvailable bool
	DataQuality DataQuality
}

func (o FilterOption) clone() FilterOption {
	out := o
	if len(o.Extra) > 0 {
		out.Extra = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			out.Extra[k] = v
		}
	}
	if o.Metadata != nil {
		out.Metadata = o.Metadata.cloneMetadata()
	}
	return out
}

// CloneOptions returns a deep copy of options.
func CloneOptions(options []FilterOption) []FilterOption {
	if options == nil {
		return nil
	}
	out := make([]FilterOption, len(options))
	for i, opt := range options {
		out[i] = opt.clone()
	}
	return out
}

// OptionMetadata is implemented by the per-source metadata types below.
type OptionMetadata interface {
	// Source names the dataset the metadata belongs to.
	Source() string
	cloneMetadata() OptionMetadata
}

type PartyMetadata struct {
	Abbreviation   string
	SecondaryColor string
	Status         string
	Founded        string
}

func (PartyMetadata) Source() string                   { return "parties" }
func (m PartyMetadata) cloneMetadata() OptionMetadata { return m }

type StateMetadata struct {
	Code       string
	Capital    string
	Region     string
	Population int64
	Latitude   float64
	Longitude  float64
}

func (StateMetadata) Source() string                   { return "states" }
func (m StateMetadata) cloneMetadata() OptionMetadata { return m }

type PoliticianMetadata struct {
	FirstName          string
	LastName           string
	PartyID            string
	StateOfOriginID    string
	CurrentPositionID  string
	Gender             string
	VerificationStatus string
	IsActive           bool
}

func (PoliticianMetadata) Source() string                   { return "politicians" }
func (m PoliticianMetadata) cloneMetadata() OptionMetadata { return m }

type TopicMetadata struct {
	Category       string
	Keywords       []string
	TrendDirection string
	UrgencyLevel   string
}

func (TopicMetadata) Source() string { return "topics" }
func (m TopicMetadata) cloneMetadata() OptionMetadata {
	m.Keywords = append([]string(nil), m.Keywords...)
	return m
}

type PlatformMetadata struct {
	URL string
}

func (PlatformMetadata) Source() string                   { return "platforms" }
func (m PlatformMetadata) cloneMetadata() OptionMetadata { return m }

type SentimentMetadata struct {
	Polarity string
}

func (SentimentMetadata) Source() string                   { return "sentiment" }
func (m SentimentMetadata) cloneMetadata() OptionMetadata { return m }

// FilterCategory is the selectable group of options generated for one source.
type FilterCategory struct {
	ID            string
	Name          string
	Description   string
	Options       []FilterOption
	IsMultiSelect bool
	IsRequired    bool
	Dependencies  []string
	LoadingState  LoadingState
	LastUpdated   time.Time
	DataSource    string
	// Err is the last refresh failure while LoadingState is StateError.
	Err error
}

func (c FilterCategory) clone() FilterCategory {
	out := c
	out.Options = CloneOptions(c.Options)
	out.Dependencies = append([]string(nil), c.Dependencies...)
	return out
}

// IssueCode classifies a validation finding.
type IssueCode string

const (
	IssueUnknownCategory   IssueCode = "unknown_category"
	IssueUnknownOption     IssueCode = "unknown_option"
	IssueOptionUnavailable IssueCode = "option_unavailable"
	IssuePoorQuality       IssueCode = "poor_quality"
	IssueDependencyEmpty   IssueCode = "dependency_empty"
)

// ValidationIssue is a single error or warning of a selection check.
type ValidationIssue struct {
	Code    IssueCode
	Value   string
	Message string
}

// ValidationResult reports whether a selection is legal. IsValid is true
// exactly when Errors is empty.
type ValidationResult struct {
	IsValid     bool
	Errors      []ValidationIssue
	Warnings    []ValidationIssue
	Suggestions []string
}
