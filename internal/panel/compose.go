package panel

import (
	"strings"

	"github.com/desertthunder/tekx/internal/models"
)

// PurposeInput is everything the purpose of visit depends on.
type PurposeInput struct {
	Services Classification
	Repeat   IDSet
	Declined IDSet
	Type     models.AppointmentType
	Notes    string
}

// ComposePurpose renders the purpose of visit text.
//
// Sections appear in a fixed order separated by one blank line: REPEAT SERVICES and PREVIOUSLY
// DECLINED (only when a selected id matches a job of that list), APPOINTMENT TYPE (always) and
// CUSTOMER INSTRUCTIONS (only for non-blank notes).
func ComposePurpose(in PurposeInput) string {
	var sections []string

	if s := bulletSection("REPEAT SERVICES:", in.Services.Performed, in.Repeat); s != "" {
		sections = append(sections, s)
	}
	if s := bulletSection("PREVIOUSLY DECLINED:", in.Services.Declined, in.Declined); s != "" {
		sections = append(sections, s)
	}

	sections = append(sections, "APPOINTMENT TYPE: "+in.Type.Label())

	if notes := strings.TrimSpace(in.Notes); notes != "" {
		sections = append(sections, "CUSTOMER INSTRUCTIONS:\n"+notes)
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func bulletSection(header string, items []ServiceItem, selected IDSet) string {
	var b strings.Builder
	for _, it := range items {
		if !selected.Has(it.ID) {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(header)
		}
		b.WriteString("\n- ")
		b.WriteString(it.Label())
	}
	return b.String()
}
