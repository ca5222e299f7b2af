package memory

import "net/url"

// Record kinds. Unknown kinds are preserved verbatim so records written
// by newer versions survive a round trip through older ones.
const (
	KindResearchSession  = "research_session"
	KindSourcePreference = "source_preference"
	KindManual           = "manual"
)

// Curation actions recorded on source preferences.
const (
	ActionSelected = "selected"
	ActionRejected = "rejected"
)

// Metadata is the structured side channel of a memory record. Fields
// are populated per kind: sessions carry Topic and AIMode, source
// preferences carry Domain and Action.
type Metadata struct {
	Kind          string
	Topic         string
	Domain        string
	Action        string
	AIMode        string
	Date          string
	SessionID     string
	ManuallyAdded bool
}

// metadata map keys as stored on the vector record.
const (
	metaKind          = "type"
	metaTopic         = "topic"
	metaDomain        = "domain"
	metaAction        = "action"
	metaAIMode        = "ai_mode"
	metaDate          = "date"
	metaSessionID     = "session_id"
	metaManuallyAdded = "manually_added"
)

// ToMap flattens the metadata for storage, omitting empty fields.
func (m Metadata) ToMap() map[string]string {
	out := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set(metaKind, m.Kind)
	set(metaTopic, m.Topic)
	set(metaDomain, m.Domain)
	set(metaAction, m.Action)
	set(metaAIMode, m.AIMode)
	set(metaDate, m.Date)
	set(metaSessionID, m.SessionID)
	if m.ManuallyAdded {
		out[metaManuallyAdded] = "true"
	}
	return out
}

// ParseMetadata reads a stored metadata map defensively: missing keys
// become zero values, never errors.
func ParseMetadata(raw map[string]string) Metadata {
	return Metadata{
		Kind:          raw[metaKind],
		Topic:         raw[metaTopic],
		Domain:        raw[metaDomain],
		Action:        raw[metaAction],
		AIMode:        raw[metaAIMode],
		Date:          raw[metaDate],
		SessionID:     raw[metaSessionID],
		ManuallyAdded: raw[metaManuallyAdded] == "true",
	}
}

// ExtractDomain pulls the host out of a URL. Unparseable input yields
// the empty string, which preference aggregation skips.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
