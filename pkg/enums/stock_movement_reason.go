package enums

// StockMovementReason explains why a stock row changed.
type StockMovementReason string

const (
	StockMovementGoodsReceipt     StockMovementReason = "goods_receipt"
	StockMovementTransferOut      StockMovementReason = "transfer_out"
	StockMovementTransferIn       StockMovementReason = "transfer_in"
	StockMovementSale             StockMovementReason = "sale"
	StockMovementSaleReversal     StockMovementReason = "sale_reversal"
	StockMovementManualAdjustment StockMovementReason = "manual_adjustment"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementGoodsReceipt,
	StockMovementTransferOut,
	StockMovementTransferIn,
	StockMovementSale,
	StockMovementSaleReversal,
	StockMovementManualAdjustment,
}

func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, bool) {
	r := StockMovementReason(value)
	return r, r.IsValid()
}
