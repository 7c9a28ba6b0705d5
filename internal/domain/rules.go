package domain

// Advisory texts. The dumping and sea-level groups share the stress and
// severe texts.
const (
	AdvisoryStress          = "Sea level rise exceeds safe threshold. Blue carbon ecosystems under stress, long-term coastal planning required"
	AdvisorySevere          = "Rapid sea level rise detected. Risk of mangrove drowning and soil carbon loss. Authorities must initiate coastal defense and monitoring."
	AdvisoryLowBloom        = "Algal levels too low. Risk of reduced food availability for fish larvae. Authorities should monitor ecosystem balance."
	AdvisoryHighBloom       = "High algal bloom risk detected. Fishermen advised to avoid fishing in affected areas due to oxygen depletion risk."
	AdvisorySevereBloom     = "Severe algal bloom risk detected. Immediate stop on fishing recommended. Authorities should monitor water quality and issue safety warnings."
	AdvisoryModerateCyclone = "Cyclone detected (Category 1–2). Coastal erosion and wave surges may weaken blue carbon ecosystems. Prepare precautionary measures."
	AdvisorySevereCyclone   = "Severe Cyclone (Category 3–5) expected. High risk to mangroves, seagrass, and coastal wetlands. Immediate evacuation and disaster response required."
)

// Thresholds. Float ranges are open, so a reading equal to a bound never
// alerts. Cyclone bounds are inclusive categories.
const (
	dumpingStressMin = 50.0
	dumpingSevereMin = 200.0

	bloomLowMax    = 20.0
	bloomHighMin   = 50.0
	bloomSevereMin = 75.0

	cycloneModerateMin = 1
	cycloneSevereMin   = 3

	seaLevelStressMin = 5.0
	seaLevelSevereMin = 20.0
)

// rule classifies one field of a row. ok is false when nothing triggers.
type rule struct {
	group    Group
	classify func(MetricRow) (tier Tier, message string, ok bool)
}

// rules is evaluated in order; the order is the emission order of Evaluate.
var rules = []rule{
	{group: GroupDumping, classify: classifyDumping},
	{group: GroupBloom, classify: classifyBloom},
	{group: GroupCyclone, classify: classifyCyclone},
	{group: GroupSeaLevel, classify: classifySeaLevel},
}

// Evaluate returns the advisories triggered by a row, at most one per group.
// It has no side effects and never fails.
func Evaluate(row MetricRow) []AlertEvent {
	var events []AlertEvent
	for _, r := range rules {
		tier, msg, ok := r.classify(row)
		if !ok {
			continue
		}
		events = append(events, AlertEvent{
			LocationID: row.LocationID,
			Group:      r.group,
			Tier:       tier,
			Message:    msg,
		})
	}
	return events
}

func classifyDumping(row MetricRow) (Tier, string, bool) {
	q := row.DumpingQuantity
	switch {
	case q > dumpingStressMin && q < dumpingSevereMin:
		return TierStress, AdvisoryStress, true
	case q > dumpingSevereMin:
		return TierSevere, AdvisorySevere, true
	}
	return "", "", false
}

func classifyBloom(row MetricRow) (Tier, string, bool) {
	b := row.BloomRiskScore
	switch {
	case b < bloomLowMax:
		return TierLow, AdvisoryLowBloom, true
	case b > bloomHighMin && b < bloomSevereMin:
		return TierHigh, AdvisoryHighBloom, true
	case b > bloomSevereMin:
		return TierSevere, AdvisorySevereBloom, true
	}
	return "", "", false
}

func classifyCyclone(row MetricRow) (Tier, string, bool) {
	c := row.CycloneCategory
	switch {
	case c >= cycloneModerateMin && c < cycloneSevereMin:
		return TierModerate, AdvisoryModerateCyclone, true
	case c >= cycloneSevereMin:
		return TierSevere, AdvisorySevereCyclone, true
	}
	return "", "", false
}

func classifySeaLevel(row MetricRow) (Tier, string, bool) {
	s := row.SeaLevelRise
	switch {
	case s > seaLevelStressMin && s < seaLevelSevereMin:
		return TierStress, AdvisoryStress, true
	case s > seaLevelSevereMin:
		return TierSevere, AdvisorySevere, true
	}
	return "", "", false
}
