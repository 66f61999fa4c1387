package breaking

// ChangeKind represents the type of API change
type ChangeKind string

const (
	ChangeRemoved          ChangeKind = "removed"           // Declaration was deleted
	ChangeSignatureChanged ChangeKind = "signature_changed" // Member text changed under the same identity
	ChangeTypeChanged      ChangeKind = "type_changed"      // Type header changed
	ChangeRenamed          ChangeKind = "renamed"           // Same declaration under a new name
	ChangeAdded            ChangeKind = "added"             // New declaration
)

// Severity indicates how breaking a change is
type Severity string

const (
	SeverityBreaking    Severity = "breaking"     // Will cause compile errors for consumers
	SeverityWarning     Severity = "warning"      // May break implementers or subclasses
	SeverityNonBreaking Severity = "non_breaking" // Safe change (additions)
)

// APIChange represents a single change between two surfaces
type APIChange struct {
	Kind        ChangeKind `json:"kind"`
	Severity    Severity   `json:"severity"`
	Path        string     `json:"path"`
	DeclKind    DeclKind   `json:"declKind"`
	Description string     `json:"description"`
	OldValue    string     `json:"oldValue,omitempty"`
	NewValue    string     `json:"newValue,omitempty"`
	OldLine     int        `json:"oldLine,omitempty"`
	NewLine     int        `json:"newLine,omitempty"`
}

// CompareResult contains the result of comparing two surfaces
type CompareResult struct {
	BaseRef            string      `json:"baseRef"`
	TargetRef          string      `json:"targetRef"`
	Changes            []APIChange `json:"changes"`
	Summary            *Summary    `json:"summary"`
	SemverAdvice       string      `json:"semverAdvice"` // "major", "minor", "patch"
	NextVersion        string      `json:"nextVersion,omitempty"`
	TotalBaseSymbols   int         `json:"totalBaseSymbols"`
	TotalTargetSymbols int         `json:"totalTargetSymbols"`
}

// Summary provides an overview of the changes
type Summary struct {
	TotalChanges    int            `json:"totalChanges"`
	BreakingChanges int            `json:"breakingChanges"`
	Warnings        int            `json:"warnings"`
	Additions       int            `json:"additions"`
	ByKind          map[string]int `json:"byKind"`
}

// HasBreakingChanges returns true if there are any breaking changes
func (r *CompareResult) HasBreakingChanges() bool {
	return r.Summary != nil && r.Summary.BreakingChanges > 0
}
