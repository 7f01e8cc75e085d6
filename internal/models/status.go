package models

// OrderStatus is the closed set of order states. An order only moves forward
// along pending -> processing -> shipped -> delivered, or to cancelled while
// it is still cancellable.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var nextStatus = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusProcessing: true, OrderStatusCancelled: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true},
	OrderStatusShipped:    {OrderStatusDelivered: true},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsLegalTransition reports whether an order in status from may move to to.
func IsLegalTransition(from, to OrderStatus) bool {
	return nextStatus[from][to]
}

// IsCancellable reports whether an order in status s may still be cancelled.
// Once shipped, cancellation goes through a return/refund process instead.
func IsCancellable(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

func ValidOrderStatus(s OrderStatus) bool {
	_, ok := nextStatus[s]
	return ok
}
