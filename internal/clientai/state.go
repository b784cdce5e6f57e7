package clientai

// turnState tracks where a message is in its processing pipeline. States are
// logged at debug level so a stuck turn can be traced after the fact.
type turnState string

const (
	stateReceived         turnState = "received"
	statePromptBuilt      turnState = "prompt_built"
	stateFirstCompletion  turnState = "first_completion"
	stateToolSelected     turnState = "tool_selected"
	stateToolExecuted     turnState = "tool_executed"
	stateSecondCompletion turnState = "second_completion"
	stateReplied          turnState = "replied"
	stateFallbackReplied  turnState = "fallback_replied"
)

type turnTrace struct {
	svc            *Service
	orgID, contact string
	state          turnState
}

func (t *turnTrace) to(next turnState) {
	t.svc.logger.Debug("turn state",
		"org_id", t.orgID, "contact_id", t.contact,
		"from", string(t.state), "to", string(next))
	t.state = next
}
