package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrFeedUnavailable  = errors.New("market data feed unavailable")
	ErrMalformedRecord  = errors.New("malformed pair record")
	ErrDiffBelowFloor   = errors.New("price difference below floor")
	ErrCompetitionHigh  = errors.New("competition score above ceiling")
	ErrProfitBelowMin   = errors.New("estimated profit below minimum")
	ErrGasAboveCeiling  = errors.New("gas price above ceiling")
	ErrNoContractFunds  = errors.New("no token balance in contract")
	ErrRelayRejected    = errors.New("relay rejected bundle")
	ErrEstimationFailed = errors.New("profit estimation call failed")
	ErrContractProbe    = errors.New("contract unreachable")
)

// FailureKind categorizes an on-chain execution failure for logging. The
// categories mirror the revert reasons the arbitrage contract emits.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureLowProfit     FailureKind = "insufficient_profit"
	FailureGasTooHigh    FailureKind = "gas_too_high"
	FailureSlippage      FailureKind = "slippage"
	FailureUncategorized FailureKind = "uncategorized"
)

// ClassifyRevert maps a revert/error message to a FailureKind by substring
// matching. This is a best-effort heuristic for unstructured error sources,
// used only for logging; it never drives retry behavior.
func ClassifyRevert(msg string) FailureKind {
	switch {
	case msg == "":
		return FailureNone
	case strings.Contains(msg, "LOW_PROFIT"):
		return FailureLowProfit
	case strings.Contains(msg, "GAS_TOO_HIGH"):
		return FailureGasTooHigh
	case strings.Contains(msg, "SLIPPAGE"):
		return FailureSlippage
	default:
		return FailureUncategorized
	}
}
