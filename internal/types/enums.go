package types

type Classification string

const (
	ClassificationSelf         Classification = "self"
	ClassificationCompatible   Classification = "compatible"
	ClassificationIncompatible Classification = "incompatible"
	ClassificationUnknown      Classification = "unknown"
)

type Decision string

const (
	DecisionProceed Decision = "proceed"
	DecisionAbort   Decision = "abort"
)

type ResolveOutcome string

const (
	ResolveOutcomeCacheHit   ResolveOutcome = "cache_hit"
	ResolveOutcomeMatched    ResolveOutcome = "matched"
	ResolveOutcomeUnresolved ResolveOutcome = "unresolved"
)
