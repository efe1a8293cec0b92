// Package insight implements the pattern-analysis engine: it aggregates
// historical task events and journal data into named per-user patterns,
// turns stored patterns plus live task state into situational nudges, and
// computes journaling streaks.
package insight

import "strings"

// Kind identifies a pattern family. Some kinds carry a qualifier — the
// focus level, day name, or entity value the pattern is about.
type Kind int

const (
	KindUnknown Kind = iota
	KindPeakTime
	KindPeakDay
	KindCompletionRate // qualifier: focus level
	KindAvgCompletionDays
	KindAvoidanceCategory
	KindMoodDay // qualifier: day name
	KindEnergyHighDay
	KindEnergyLowDay
	KindProductiveMood
	KindUnproductiveMood
	KindEntityPositive // qualifier: entity value
	KindEntityNegative // qualifier: entity value
)

// Key is the structural form of a pattern_type column value. Lookups in
// the nudge generator match on Kind and Qualifier instead of testing raw
// strings.
type Key struct {
	Kind      Kind
	Qualifier string
}

// Fixed pattern_type values and prefixes for the qualified kinds.
const (
	typePeakTime          = "peak_time"
	typePeakDay           = "peak_day"
	typeAvgCompletionDays = "avg_completion_days"
	typeAvoidanceCategory = "avoidance_category"
	typeEnergyHighDay     = "energy_high_day"
	typeEnergyLowDay      = "energy_low_day"
	typeProductiveMood    = "productive_mood"
	typeUnproductiveMood  = "unproductive_mood"

	prefixCompletionRate = "completion_rate_"
	prefixMoodDay        = "mood_day_"
	prefixEntityPositive = "entity_positive_"
	prefixEntityNegative = "entity_negative_"
)

// ParseKey converts a stored pattern_type into its structural form.
// Unrecognized values map to KindUnknown with the raw string as qualifier.
func ParseKey(patternType string) Key {
	switch patternType {
	case typePeakTime:
		return Key{Kind: KindPeakTime}
	case typePeakDay:
		return Key{Kind: KindPeakDay}
	case typeAvgCompletionDays:
		return Key{Kind: KindAvgCompletionDays}
	case typeAvoidanceCategory:
		return Key{Kind: KindAvoidanceCategory}
	case typeEnergyHighDay:
		return Key{Kind: KindEnergyHighDay}
	case typeEnergyLowDay:
		return Key{Kind: KindEnergyLowDay}
	case typeProductiveMood:
		return Key{Kind: KindProductiveMood}
	case typeUnproductiveMood:
		return Key{Kind: KindUnproductiveMood}
	}

	prefixes := []struct {
		prefix string
		kind   Kind
	}{
		{prefixCompletionRate, KindCompletionRate},
		{prefixMoodDay, KindMoodDay},
		{prefixEntityPositive, KindEntityPositive},
		{prefixEntityNegative, KindEntityNegative},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(patternType, p.prefix) {
			return Key{Kind: p.kind, Qualifier: strings.TrimPrefix(patternType, p.prefix)}
		}
	}

	return Key{Kind: KindUnknown, Qualifier: patternType}
}

// String renders the key back into its pattern_type column value.
func (k Key) String() string {
	switch k.Kind {
	case KindPeakTime:
		return typePeakTime
	case KindPeakDay:
		return typePeakDay
	case KindAvgCompletionDays:
		return typeAvgCompletionDays
	case KindAvoidanceCategory:
		return typeAvoidanceCategory
	case KindEnergyHighDay:
		return typeEnergyHighDay
	case KindEnergyLowDay:
		return typeEnergyLowDay
	case KindProductiveMood:
		return typeProductiveMood
	case KindUnproductiveMood:
		return typeUnproductiveMood
	case KindCompletionRate:
		return prefixCompletionRate + k.Qualifier
	case KindMoodDay:
		return prefixMoodDay + k.Qualifier
	case KindEntityPositive:
		return prefixEntityPositive + k.Qualifier
	case KindEntityNegative:
		return prefixEntityNegative + k.Qualifier
	default:
		return k.Qualifier
	}
}

// normalizeQualifier lowercases an entity value for use inside a
// pattern_type so the same entity always maps to the same key.
func normalizeQualifier(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
