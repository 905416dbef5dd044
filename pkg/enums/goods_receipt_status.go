package enums

// GoodsReceiptStatus is derived from detail quantities until the receipt is moved into a warehouse.
type GoodsReceiptStatus string

const (
	GoodsReceiptStatusPending           GoodsReceiptStatus = "pending"
	GoodsReceiptStatusPartiallyReceived GoodsReceiptStatus = "partially-received"
	GoodsReceiptStatusFullyReceived     GoodsReceiptStatus = "fully-received"
	GoodsReceiptStatusInWarehouse       GoodsReceiptStatus = "in-warehouse"
)

var validGoodsReceiptStatuses = []GoodsReceiptStatus{
	GoodsReceiptStatusPending,
	GoodsReceiptStatusPartiallyReceived,
	GoodsReceiptStatusFullyReceived,
	GoodsReceiptStatusInWarehouse,
}

func (s GoodsReceiptStatus) IsValid() bool {
	for _, candidate := range validGoodsReceiptStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
