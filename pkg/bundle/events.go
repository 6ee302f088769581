package bundle

type (
	// Sent when a stage begins.
	EventStageStarted struct {
		Stage Stage
	}

	// Sent when a stage finishes, successfully or not. Artifact names the
	// path produced by the stage, when it produces one.
	EventStageDone struct {
		Err      error
		Artifact string
		Stage    Stage
	}

	// Sent when the whole run finishes. Output is the signed bundle path on
	// success.
	EventDone struct {
		Err    error
		Output string
	}
)

// Subscribe registers a callback receiving pipeline events. Callbacks run on
// the pipeline goroutine and must not block.
func (p *Pipeline) Subscribe(f func(any)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers = append(p.subscribers, f)
}

func (p *Pipeline) broadcast(evt any) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, f := range p.subscribers {
		f(evt)
	}
}
