package audithook

// Action constants for audit events.
const (
	// Input actions
	ActionAccountUpdated        = "account.updated"
	ActionSubscriptionCreated   = "subscription.created"
	ActionTransitionRecorded    = "subscription.transition_recorded"
	ActionBlockingStateRecorded = "blocking.recorded"

	// Computation actions
	ActionSubscriptionSkipped = "billing.subscription_skipped"
	ActionSubscriptionFailed  = "billing.subscription_failed"
	ActionEventsComputed      = "billing.events_computed"
)

// Resource constants for audit events.
const (
	ResourceAccount       = "account"
	ResourceSubscription  = "subscription"
	ResourceBlockingState = "blocking_state"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryAccess       = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
