package domain

import "time"

// Entry is one symbol under study together with the date its signal fired.
type Entry struct {
	Symbol     string    // ticker
	SignalDate time.Time // signal date (UTC midnight)
}

// ResolvedEntry pairs a successful threshold scan with its governing exit.
// It is the unit consumed by the simulator, metrics and ledger.
type ResolvedEntry struct {
	Result *ThresholdResult
	Exit   ExitOutcome
}

// Symbol returns the entry symbol.
func (r ResolvedEntry) Symbol() string {
	return r.Result.Entry.Symbol
}

// EntryDate returns the actual entry (purchase) date.
func (r ResolvedEntry) EntryDate() time.Time {
	return r.Result.EntryDate
}
