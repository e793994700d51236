package entities

// CounterScope names one independently tracked pair of counters.
type CounterScope string

const (
	// ScopeCombined folds every signal into one score. The decision engine
	// reads it unless split scoring is enabled.
	ScopeCombined   CounterScope = "combined"
	ScopeHTTPStatus CounterScope = "http_status"
	ScopeBalance    CounterScope = "balance"
)

type ScoreMode string

const (
	ScoreModeCombined ScoreMode = "combined"
	ScoreModeSplit    ScoreMode = "split"
)

// ScopesFor returns the scopes a signal increments under the given mode.
func ScopesFor(mode ScoreMode, signal CounterScope) []CounterScope {
	if mode == ScoreModeSplit && signal != ScopeCombined {
		return []CounterScope{ScopeCombined, signal}
	}
	return []CounterScope{ScopeCombined}
}

// DecisionScopes returns the scopes the decision engine must evaluate.
func DecisionScopes(mode ScoreMode) []CounterScope {
	if mode == ScoreModeSplit {
		return []CounterScope{ScopeHTTPStatus, ScopeBalance}
	}
	return []CounterScope{ScopeCombined}
}

// ConsistencyCounters holds the sample counts of one measurement epoch.
// Matched never exceeds Total and neither decreases until an explicit reset.
type ConsistencyCounters struct {
	Total   int64
	Matched int64
}

// Score is the matched percentage, 100 when nothing has been observed yet.
func (c ConsistencyCounters) Score() float64 {
	if c.Total <= 0 {
		return 100.0
	}
	return float64(c.Matched) / float64(c.Total) * 100.0
}

// Record returns the counters after one more observation.
func (c ConsistencyCounters) Record(matched bool) ConsistencyCounters {
	next := ConsistencyCounters{Total: c.Total + 1, Matched: c.Matched}
	if matched {
		next.Matched++
	}
	return next
}
