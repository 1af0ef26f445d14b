package pool

// EventKind identifies the kind of a pool event.
type EventKind string

const (
	EventLiquidityAdded   EventKind = "liquidity_added"
	EventLiquidityRemoved EventKind = "liquidity_removed"
	EventSwap             EventKind = "swap"
)

// LiquidityAddedData is the payload of a liquidity_added event.
type LiquidityAddedData struct {
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
	SharesMinted string `json:"shares_minted"`
}

// LiquidityRemovedData is the payload of a liquidity_removed event.
type LiquidityRemovedData struct {
	SharesBurned string `json:"shares_burned"`
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
}

// SwapEventData is the payload of a swap event.
type SwapEventData struct {
	TokenIn   string `json:"token_in"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

// Event is one immutable entry of the pool's append-only log. Seq numbers are
// assigned in execution order starting at 0. Exactly one payload field is set,
// matching Kind. Amounts are decimal strings.
type Event struct {
	Seq       uint64                `json:"seq"`
	Kind      EventKind             `json:"kind"`
	Account   string                `json:"account"`
	Timestamp uint64                `json:"timestamp"`
	Added     *LiquidityAddedData   `json:"added,omitempty"`
	Removed   *LiquidityRemovedData `json:"removed,omitempty"`
	Swap      *SwapEventData        `json:"swap,omitempty"`
}
