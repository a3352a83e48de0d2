package pipeline

import "fmt"

const (
	StageSanitize = "sanitize"
	StageAssemble = "assemble"
)

const (
	ReasonCycle          = "cycle"
	ReasonUnserializable = "unserializable"
	ReasonUnreadable     = "unreadable"
	ReasonNotNumber      = "not a number"
	ReasonUnresolved     = "unresolved lookup"
	ReasonShape          = "unexpected shape"
	ReasonDate           = "unparsable date"
)

// Warning records a field that was dropped or degraded to its safe default.
type Warning struct {
	Stage  string `json:"stage"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w Warning) String() string { return fmt.Sprintf("%s %s: %s", w.Stage, w.Field, w.Reason) }

// Diagnostics is the non-fatal side channel returned next to every payload.
type Diagnostics []Warning

func (d *Diagnostics) add(stage, field, reason string) {
	*d = append(*d, Warning{Stage: stage, Field: field, Reason: reason})
}

// Fields returns the distinct field names that produced warnings, in order.
func (d Diagnostics) Fields() []string {
	seen := make(map[string]struct{}, len(d))
	out := make([]string, 0, len(d))
	for _, w := range d {
		if _, ok := seen[w.Field]; ok {
			continue
		}
		seen[w.Field] = struct{}{}
		out = append(out, w.Field)
	}
	return out
}
