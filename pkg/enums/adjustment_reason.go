package enums

// Adjustment reasons stamped on inventory ledger rows. These are free-text
// columns; the constants keep the historical spellings stable so reporting
// queries keep matching.
const (
	AdjustmentReasonSale              = "Sale"
	AdjustmentReasonSaleReturn        = "Sale Return"
	AdjustmentReasonShipmentSale      = "sale"
	AdjustmentReasonShipmentReturned  = "shipment returned"
	AdjustmentReasonShipmentCancelled = "shipment cancelled"
	AdjustmentReasonOrderDeleted      = "Order Deleted"
)
