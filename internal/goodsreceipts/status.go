package goodsreceipts

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// DeriveStatus computes a receipt's status from its detail quantities. A
// receipt already in the warehouse keeps that status.
func DeriveStatus(details []models.GoodsReceiptDetail, current enums.GoodsReceiptStatus) enums.GoodsReceiptStatus {
	if current == enums.GoodsReceiptStatusInWarehouse {
		return current
	}
	received, expected := decimal.Zero, decimal.Zero
	for _, d := range details {
		received = received.Add(d.ReceivedQty)
		expected = expected.Add(d.ExpectedQty)
	}
	switch {
	case !received.IsPositive():
		return enums.GoodsReceiptStatusPending
	case received.LessThan(expected):
		return enums.GoodsReceiptStatusPartiallyReceived
	default:
		return enums.GoodsReceiptStatusFullyReceived
	}
}

// fullyReceived reports whether every line has received its expected quantity.
func fullyReceived(details []models.GoodsReceiptDetail) bool {
	if len(details) == 0 {
		return false
	}
	for _, d := range details {
		if !d.ReceivedQty.Equal(d.ExpectedQty) {
			return false
		}
	}
	return true
}
