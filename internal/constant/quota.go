package constant

// Daily enhancement ceilings per identity kind. Counters live in Redis and
// expire at the next UTC midnight, so these are per-calendar-day limits.
const (
	AnonymousDailyLimit = 10
	UserDailyLimit      = 20

	// Coarse per-IP abuse guard, checked before the identity counter.
	IPDailyLimitAnonymous     = 30
	IPDailyLimitAuthenticated = 60
)

// Context assembly budget for follow-up enhancement calls.
const (
	ContextCharBudget = 2000
	ContextMaxTurns   = 6
)

// Synopsis scalar fields are clamped to this many characters on merge.
const SynopsisFieldLimit = 120
