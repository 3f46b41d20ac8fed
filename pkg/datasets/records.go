package datasets

import "strings"

// Dataset keys understood by the loader and used as category ids.
const (
	KeyParties     = "parties"
	KeyStates      = "states"
	KeyPoliticians = "politicians"
	KeyTopics      = "topics"
	KeyPlatforms   = "platforms"
	KeySentiment   = "sentiment"
)

var roots = map[string]string{
	KeyParties:     "parties",
	KeyStates:      "states",
	KeyPoliticians: "politicians",
	KeyTopics:      "topicTrends",
	KeyPlatforms:   "platforms",
	KeySentiment:   "sentimentLabels",
}

// Root returns the payload field holding the records of dataset key. Unknown
// keys use the key itself.
func Root(key string) string {
	if root, ok := roots[key]; ok {
		return root
	}
	return key
}

// Keys lists the built-in dataset keys in a stable order.
func Keys() []string {
	return []string{KeyParties, KeyStates, KeyPoliticians, KeyTopics, KeyPlatforms, KeySentiment}
}

type PartyColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

type PartyMetadata struct {
	Status  string `json:"status,omitempty"`
	Founded string `json:"founded,omitempty"`
}

type Party struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Abbreviation string        `json:"abbreviation,omitempty"`
	Colors       PartyColors   `json:"colors"`
	Metadata     PartyMetadata `json:"metadata"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type State struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Code        string      `json:"code,omitempty"`
	Capital     string      `json:"capital,omitempty"`
	Region      string      `json:"region,omitempty"`
	Population  int64       `json:"population,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

type PoliticianMetadata struct {
	IsActive           *bool  `json:"isActive,omitempty"`
	VerificationStatus string `json:"verificationStatus,omitempty"`
}

type Politician struct {
	ID                string             `json:"id"`
	FirstName         string             `json:"firstName,omitempty"`
	LastName          string             `json:"lastName,omitempty"`
	FullName          string             `json:"fullName,omitempty"`
	PartyID           string             `json:"partyId,omitempty"`
	StateOfOriginID   string             `json:"stateOfOriginId,omitempty"`
	CurrentPositionID string             `json:"currentPositionId,omitempty"`
	Gender            string             `json:"gender,omitempty"`
	Metadata          PoliticianMetadata `json:"metadata"`
}

// DisplayName prefers the full name and falls back to first + last.
func (p Politician) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

type Topic struct {
	ID             string   `json:"id"`
	TopicName      string   `json:"topicName"`
	Mentions       int64    `json:"mentions,omitempty"`
	Category       string   `json:"category,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	TrendDirection string   `json:"trendDirection,omitempty"`
	UrgencyLevel   string   `json:"urgencyLevel,omitempty"`
	IsActive       *bool    `json:"isActive,omitempty"`
}

type Platform struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	URL         string `json:"url,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

type SentimentLabel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Polarity    string `json:"polarity,omitempty"`
}
