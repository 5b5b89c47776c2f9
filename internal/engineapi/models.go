package engineapi

// Wire types mirror the engine's JSON DTOs field for field. Prices travel
// exclusively as fixed-point integers (cents); decimals exist only in the
// view layer.

// Quote is the L1 snapshot. The engine omits a side that has no resting
// orders, so every field is optional.
type Quote struct {
	BestBid *int64 `json:"bestBid,omitempty"`
	BestAsk *int64 `json:"bestAsk,omitempty"`
	Spread  *int64 `json:"spread,omitempty"`
}

// PriceLevel is the aggregate resting size at one price on one side.
// Within a book side the engine emits levels best price first: bids
// descending, asks ascending.
type PriceLevel struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
	Orders   int   `json:"orders"`
}

// Book is the L2 depth snapshot.
type Book struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Trade is an immutable historical fill.
type Trade struct {
	BuyOrderID  int64 `json:"buyOrderId"`
	SellOrderID int64 `json:"sellOrderId"`
	Price       int64 `json:"price"`
	Quantity    int64 `json:"quantity"`
	Timestamp   int64 `json:"timestamp"`
}

// Stats is the engine's self-reported health snapshot.
type Stats struct {
	ActiveOrders    int `json:"activeOrders"`
	PoolUtilization int `json:"poolUtilization"`
	PoolCapacity    int `json:"poolCapacity"`
	BidLevels       int `json:"bidLevels"`
	AskLevels       int `json:"askLevels"`
	TotalTrades     int `json:"totalTrades"`
}

// Side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type orderRequest struct {
	Side     Side  `json:"side"`
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// OrderResult is the engine's response to an accepted submission.
type OrderResult struct {
	OrderID           int64  `json:"orderId"`
	Status            string `json:"status"` // "ACCEPTED" (resting) or "MATCHED"
	TradesCount       int    `json:"tradesCount"`
	RemainingQuantity int64  `json:"remainingQuantity"`
}
