package engine

import (
	"github.com/sells-group/territory-cli/internal/model"
)

// lowWarnings force a proposal to LOW confidence.
var lowWarnings = map[model.WarningType]bool{
	model.WarnCapacityExceeded: true,
	model.WarnHierarchySplit:   true,
	model.WarnChangingCustomer: true,
}

// mediumWarnings cap a proposal at MEDIUM unless something lower applies.
var mediumWarnings = map[model.WarningType]bool{
	model.WarnContinuityBroken:  true,
	model.WarnTierConcentration: true,
	model.WarnCrossRegion:       true,
}

// ScoreConfidence maps the union of warnings on a proposal to a
// confidence level. LOW is sticky: once a LOW-class warning is present
// nothing raises the result back. Warnings outside the two classes
// (CRE_RISK, STRATEGIC_OVERFLOW, LOCK_OVERRIDE) carry information but
// do not move confidence.
func ScoreConfidence(warnings []model.Warning) model.Confidence {
	level := model.ConfidenceHigh
	for _, w := range warnings {
		if lowWarnings[w.Type] {
			return model.ConfidenceLow
		}
		if mediumWarnings[w.Type] {
			level = model.ConfidenceMedium
		}
	}
	return level
}
