package models

import "testing"

func TestLegalTransitions(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	legal := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusProcessing}:   true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusProcessing, OrderStatusShipped}:   true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
		{OrderStatusShipped, OrderStatusDelivered}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := legal[[2]OrderStatus{from, to}]
			if got := IsLegalTransition(from, to); got != want {
				t.Errorf("IsLegalTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsLegalTransitionUnknownStatus(t *testing.T) {
	if IsLegalTransition("unknown", OrderStatusProcessing) {
		t.Error("unknown source status should not transition anywhere")
	}
	if IsLegalTransition(OrderStatusPending, "unknown") {
		t.Error("unknown target status should be rejected")
	}
}

func TestIsCancellable(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
	}
	for status, want := range cancellable {
		if got := IsCancellable(status); got != want {
			t.Errorf("IsCancellable(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestValidOrderStatus(t *testing.T) {
	if !ValidOrderStatus(OrderStatusDelivered) {
		t.Error("delivered should be a valid status")
	}
	if ValidOrderStatus("refunded") {
		t.Error("refunded is not an order status")
	}
}
