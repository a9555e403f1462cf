package domain

import (
	"math/big"
	"time"
)

// Decision is the terminal verdict of the decision engine for one
// opportunity within one cycle.
type Decision string

const (
	DecisionExecute Decision = "execute"
	DecisionSkip    Decision = "skip"
	DecisionDefer   Decision = "defer"
)

// PlanState tracks an opportunity through the per-cycle state machine:
// Candidate -> Estimated -> {GatedSkip | Approved} -> {Executed | Failed}.
type PlanState string

const (
	PlanCandidate PlanState = "candidate"
	PlanEstimated PlanState = "estimated"
	PlanGatedSkip PlanState = "gated_skip"
	PlanApproved  PlanState = "approved"
	PlanExecuted  PlanState = "executed"
	PlanFailed    PlanState = "failed"
)

// ExecutionPlan is the transient output of one decision cycle for one
// opportunity. It is produced by the decision engine, optionally handed to
// the execution pipeline, and discarded at the end of the cycle.
type ExecutionPlan struct {
	ID          string
	Opportunity Opportunity
	Route       TradeRoute

	TradeAmount    *big.Int
	ExpectedOutput *big.Int
	MinAmountOut   *big.Int

	GasPriceGwei float64
	ProfitUSD    float64

	State      PlanState
	Decision   Decision
	SkipReason string

	CreatedAt time.Time
}

// ExecutionResult records the outcome of submitting an approved plan.
type ExecutionResult struct {
	PlanID      string
	TxHash      string
	BundleID    string
	Via         ExecutionPath
	BlockNumber uint64
	Success     bool
	Failure     FailureKind
	SubmittedAt time.Time
}

// ExecutionPath names which submission path carried the trade.
type ExecutionPath string

const (
	PathPrimaryRelay   ExecutionPath = "primary_relay"
	PathSecondaryRelay ExecutionPath = "secondary_relay"
	PathOwnCapital     ExecutionPath = "own_capital"
)
