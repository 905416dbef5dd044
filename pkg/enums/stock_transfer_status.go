package enums

import "fmt"

// StockTransferStatus tracks a staged warehouse-to-warehouse transfer.
type StockTransferStatus string

const (
	StockTransferStatusPending           StockTransferStatus = "pending"
	StockTransferStatusApproved          StockTransferStatus = "approved"
	StockTransferStatusPartiallyReceived StockTransferStatus = "partially-received"
	StockTransferStatusFullyTransferred  StockTransferStatus = "fully-transferred"
	StockTransferStatusCompleted         StockTransferStatus = "completed"
	StockTransferStatusRejected          StockTransferStatus = "rejected"
	StockTransferStatusCancelled         StockTransferStatus = "cancelled"
)

var validStockTransferStatuses = []StockTransferStatus{
	StockTransferStatusPending,
	StockTransferStatusApproved,
	StockTransferStatusPartiallyReceived,
	StockTransferStatusFullyTransferred,
	StockTransferStatusCompleted,
	StockTransferStatusRejected,
	StockTransferStatusCancelled,
}

// ActiveStockTransferStatuses are the statuses in which a transfer still claims its serial manifest.
var ActiveStockTransferStatuses = []StockTransferStatus{
	StockTransferStatusPending,
	StockTransferStatusApproved,
	StockTransferStatusPartiallyReceived,
}

func (s StockTransferStatus) IsValid() bool {
	for _, candidate := range validStockTransferStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsReceivable reports whether the destination may still receive goods.
func (s StockTransferStatus) IsReceivable() bool {
	return s == StockTransferStatusApproved || s == StockTransferStatusPartiallyReceived
}

// ParseStockTransferStatus converts raw input into StockTransferStatus.
func ParseStockTransferStatus(value string) (StockTransferStatus, error) {
	for _, candidate := range validStockTransferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock transfer status %q", value)
}
