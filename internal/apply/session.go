package apply

// Session carries the run counters from one posting to the next.
// Steps take a Session and return the updated copy.
type Session struct {
	ApplicationsDone    int
	ConsecutiveFailures int
	Postings            int // postings the walker started on, skipped ones included
}

func (s Session) started() Session {
	s.Postings++
	return s
}

func (s Session) confirmed() Session {
	s.ApplicationsDone++
	s.ConsecutiveFailures = 0
	return s
}

func (s Session) failed() Session {
	s.ConsecutiveFailures++
	return s
}

// Stop reports whether a cap has been reached.
func (s Session) Stop(maxApplications, maxConsecutiveFailures int) (StopReason, bool) {
	if s.ApplicationsDone >= maxApplications {
		return StopSuccessCap, true
	}
	if s.ConsecutiveFailures >= maxConsecutiveFailures {
		return StopFailureCap, true
	}
	return "", false
}
