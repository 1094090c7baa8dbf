package acquire

// OutcomeKind classifies the result of one strategy attempt.
type OutcomeKind int

const (
	// Success means the file was downloaded and located.
	Success OutcomeKind = iota
	// Retry means the next strategy in the chain may still succeed.
	Retry
	// Fatal means the chain must stop.
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of running one Strategy.
type Outcome struct {
	Kind   OutcomeKind
	Path   string // set on Success
	Reason string
	Stderr string
	Err    error // set on Fatal
}

func succeeded(path string) Outcome {
	return Outcome{Kind: Success, Path: path}
}

func retry(reason, stderr string) Outcome {
	return Outcome{Kind: Retry, Reason: reason, Stderr: stderr}
}

func fatal(reason string, err error) Outcome {
	return Outcome{Kind: Fatal, Reason: reason, Err: err}
}
