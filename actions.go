package auth

// Actions exposes the operations a caller may invoke against the identity
// gateway: register, sign-in, federated sign-in, sign-out, update-profile
// and request-password-reset. Each action validates local preconditions,
// calls the gateway, and reports an Outcome; session state itself changes
// only when the gateway confirms and re-emits on the observation feed.
type Actions struct {
	gateway  Gateway
	notifier Notifier
	logger   Logger
}

// ActionsOption customizes Actions construction.
type ActionsOption func(*Actions)

// WithNotifier sets the sink that receives every outcome message.
func WithNotifier(n Notifier) ActionsOption {
	return func(a *Actions) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithActionsLogger overrides the logger.
func WithActionsLogger(logger Logger) ActionsOption {
	return func(a *Actions) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewActions wires the action set against a gateway.
func NewActions(gateway Gateway, opts ...ActionsOption) *Actions {
	a := &Actions{
		gateway:  gateway,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// fail normalizes err into a failure outcome and pushes it to the sink.
func (a *Actions) fail(err error) Outcome {
	out := Failed(err)
	a.notifier.Failure(out.Reason)
	return out
}

// succeed builds a success outcome and pushes message to the sink.
func (a *Actions) succeed(identity *Identity, message string) Outcome {
	if message != "" {
		a.notifier.Success(message)
	}
	out := Succeeded(identity)
	out.Message = message
	return out
}
