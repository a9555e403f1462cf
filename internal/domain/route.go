package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TradeRoute is an ordered sequence of token addresses defining a multi-hop
// trade. Routes are generated combinatorially from the token universe and
// owned by the rotation scheduler.
type TradeRoute struct {
	Path     []string `json:"path"`
	HopCount int      `json:"hop_count"`
}

// NewTradeRoute builds a TradeRoute from an ordered token path. A valid path
// has at least two hops.
func NewTradeRoute(path ...string) TradeRoute {
	return TradeRoute{Path: path, HopCount: len(path)}
}

// Hash returns the deterministic route identity: the keccak256 of the
// comma-joined ordered path. Two routes with the same ordered path always
// share a hash; reordering the path changes it.
func (r TradeRoute) Hash() common.Hash {
	return crypto.Keccak256Hash([]byte(strings.Join(r.Path, ",")))
}

// First returns the entry asset of the route, or "" for an empty path.
func (r TradeRoute) First() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[0]
}

// Last returns the exit asset of the route, or "" for an empty path.
func (r TradeRoute) Last() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}
