package knowledge

import (
	"encoding/json"
	"strings"
	"time"
)

// EntityKind names one searchable table in the knowledge base.
type EntityKind string

const (
	KindFinding    EntityKind = "finding"
	KindHypothesis EntityKind = "hypothesis"
	KindInsight    EntityKind = "insight"
	KindResearch   EntityKind = "research"
	KindTask       EntityKind = "task"
	KindIssue      EntityKind = "issue"
	KindStudy      EntityKind = "study"
	KindAudit      EntityKind = "audit"
)

// AllKinds is the closed set of searchable kinds in canonical order.
var AllKinds = []EntityKind{
	KindFinding, KindHypothesis, KindInsight, KindResearch,
	KindTask, KindIssue, KindStudy, KindAudit,
}

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(s string) (EntityKind, bool) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (k EntityKind) String() string { return string(k) }

// idPrefix returns the prefix used for generated ids of this kind.
func (k EntityKind) idPrefix() string {
	switch k {
	case KindFinding:
		return "fnd"
	case KindHypothesis:
		return "hyp"
	case KindInsight:
		return "ins"
	case KindResearch:
		return "res"
	case KindTask:
		return "tsk"
	case KindIssue:
		return "iss"
	case KindStudy:
		return "stu"
	case KindAudit:
		return "aud"
	default:
		return "ent"
	}
}

// Finding is an observed fact, optionally tied to a research item.
type Finding struct {
	ID         string    `json:"id"`
	ResearchID string    `json:"research_id,omitempty"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"`
	Confidence string    `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Hypothesis is a claim under test.
type Hypothesis struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is a conclusion drawn from findings.
type Insight struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Confidence string    `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Research is an open line of investigation.
type Research struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is a unit of work.
type Task struct {
	ID          string    `json:"id"`
	IssueID     string    `json:"issue_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Issue is a bug, feature, spike or epic.
type Issue struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    int       `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Study is a structured learning effort around one topic.
type Study struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Question  string    `json:"question,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry records one mutation of the knowledge base. Detail is raw JSON
// and is nil when the action carried none.
type AuditEntry struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Audit actions.
const (
	ActionCreated = "created"
	ActionLinked  = "linked"
)

// Link is a directed, typed relationship between two entities. Endpoint
// types are free-form so links may reference entities zen does not store,
// such as decisions.
type Link struct {
	ID         string    `json:"id"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Relation   string    `json:"relation"`
	CreatedAt  time.Time `json:"created_at"`
}

// Relations accepted by CreateLink.
var Relations = []string{
	"blocks", "validates", "debunks", "implements", "relates_to",
	"derived_from", "triggers", "supersedes", "depends_on",
	"follows_precedent", "overrides_policy", "supports", "informs",
}

// IsRelation reports whether r is an accepted relation name.
func IsRelation(r string) bool {
	for _, known := range Relations {
		if r == known {
			return true
		}
	}
	return false
}
