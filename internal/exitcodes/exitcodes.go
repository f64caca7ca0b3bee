package exitcodes

// Exit codes for cachesweep.
// Scripts that run the tool unattended rely on these values.
const (
	Success         = 0 // Every requested operation completed
	InvalidConfig   = 2 // Configuration file invalid or unreadable
	IdentityFailure = 3 // No safe home directory or malformed user record
	RuntimeError    = 4 // Runtime error during execution
	PartialFailure  = 5 // At least one sweep gave up after exhausting its fallbacks
)
