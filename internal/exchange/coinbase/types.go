package coinbase

import (
	"time"

	"github.com/shopspring/decimal"
)

type tickerResponse struct {
	TradeID int64           `json:"trade_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	Bid     decimal.Decimal `json:"bid"`
	Ask     decimal.Decimal `json:"ask"`
	Volume  decimal.Decimal `json:"volume"`
	Time    time.Time       `json:"time"`
}

type placeOrderRequest struct {
	ClientOID   string `json:"client_oid"`
	ProductID   string `json:"product_id"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	TimeInForce string `json:"time_in_force"`
}

type orderResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Side       string          `json:"side"`
	Status     string          `json:"status"`
	DoneReason string          `json:"done_reason"`
	Settled    bool            `json:"settled"`
	FilledSize decimal.Decimal `json:"filled_size"`
}

type errorResponse struct {
	Message string `json:"message"`
}
