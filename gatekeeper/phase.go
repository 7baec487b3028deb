package gatekeeper

// Phase is a state of one Send call.
//
//	SENDING -> DONE
//	SENDING -> AUTH_FAILED -> REFRESHING -> REPLAYING -> DONE
//	                                     -> SESSION_CLEARED -> DONE
//	                                     -> REFRESH_ERROR -> DONE
type Phase int

const (
	PhaseSending Phase = iota
	PhaseAuthFailed
	PhaseRefreshing
	PhaseReplaying
	PhaseSessionCleared
	PhaseRefreshError
	PhaseDone
)

var phaseNames = map[Phase]string{
	PhaseSending:        "SENDING",
	PhaseAuthFailed:     "AUTH_FAILED",
	PhaseRefreshing:     "REFRESHING",
	PhaseReplaying:      "REPLAYING",
	PhaseSessionCleared: "SESSION_CLEARED",
	PhaseRefreshError:   "REFRESH_ERROR",
	PhaseDone:           "DONE",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "UNKNOWN"
}

var transitions = map[Phase][]Phase{
	PhaseSending:        {PhaseDone, PhaseAuthFailed},
	PhaseAuthFailed:     {PhaseRefreshing},
	PhaseRefreshing:     {PhaseReplaying, PhaseSessionCleared, PhaseRefreshError, PhaseDone},
	PhaseReplaying:      {PhaseDone},
	PhaseSessionCleared: {PhaseDone},
	PhaseRefreshError:   {PhaseDone},
}

// CanTransition reports whether next may follow p.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}
