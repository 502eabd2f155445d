package resolve

import (
	"fmt"

	"github.com/bastiangx/hintserve/internal/utils"
	"github.com/bastiangx/hintserve/pkg/trigger"
)

// Candidate is one annotation offered at a slot, most confident first.
type Candidate struct {
	Annotation string
	// Label is what the completion list shows.
	Label string
	// SortText keeps the service's order when the editor sorts the list.
	SortText string
	// Rank is 1-based; rank 1 is the most confident prediction.
	Rank       uint16
	Slot       trigger.Slot
	Identifier string
	// Line is the 1-indexed line of the slot.
	Line int
}

// Format controls how annotations are turned into candidates.
type Format struct {
	// LabelPrefix is put in front of every label; editors insert it after the trigger.
	LabelPrefix string
	// MaxCandidates caps the list, 0 keeps everything.
	MaxCandidates int
}

// DefaultFormat returns the format used when nothing is configured.
func DefaultFormat() Format {
	return Format{LabelPrefix: " "}
}

// Candidates tags annotations with their rank and slot metadata.
func (f Format) Candidates(annotations []string, slot trigger.Slot, identifier string, line int) []Candidate {
	if f.MaxCandidates > 0 && len(annotations) > f.MaxCandidates {
		annotations = annotations[:f.MaxCandidates]
	}

	ranks := utils.CreateRankList(len(annotations))
	candidates := make([]Candidate, 0, len(annotations))
	for i, annotation := range annotations {
		candidates = append(candidates, Candidate{
			Annotation: annotation,
			Label:      f.Label(annotation),
			SortText:   SortText(i),
			Rank:       ranks[i],
			Slot:       slot,
			Identifier: identifier,
			Line:       line,
		})
	}
	return candidates
}

// Label returns the display label for an annotation.
func (f Format) Label(annotation string) string {
	return f.LabelPrefix + annotation
}

// SortText returns the sort key for the candidate at index i.
// Keys are zero padded so "10" sorts after "9".
func SortText(i int) string {
	return fmt.Sprintf("%05d", i)
}
