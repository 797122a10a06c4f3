package domain

// nextStatuses lists the statuses an order may move to from each status.
// Delivered and Cancelled have no entry and are therefore terminal.
var nextStatuses = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Next returns the statuses reachable from s in one step.
func (s OrderStatus) Next() []OrderStatus {
	next := nextStatuses[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, candidate := range nextStatuses[s] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CheckTransition reports whether an order in status from may be moved to
// status to. Moving to the current status is allowed and changes nothing.
func CheckTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return &TransitionError{From: from, To: to}
	}
	if from == to || from.CanTransitionTo(to) {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// PaymentStatusAfter returns the payment status an order should carry once
// it reaches status to. Only cash on delivery settles automatically, when
// the parcel is handed over.
func PaymentStatusAfter(o *Order, to OrderStatus) PaymentStatus {
	if to == OrderStatusDelivered && o.PaymentMethod == PaymentMethodCOD {
		return PaymentStatusCompleted
	}
	return o.PaymentStatus
}
