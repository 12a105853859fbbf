package enums

// AssignmentState is derived from a delivery assignment's timestamps and the order status.
// It is never stored.
type AssignmentState string

const (
	AssignmentStateUnassigned      AssignmentState = "unassigned"
	AssignmentStateAssigned        AssignmentState = "assigned"
	AssignmentStatePickedUp        AssignmentState = "picked_up"
	AssignmentStateMarkedDelivered AssignmentState = "marked_delivered"
	AssignmentStateConfirmed       AssignmentState = "confirmed"
	AssignmentStateRejected        AssignmentState = "rejected"
)

// String implements fmt.Stringer.
func (a AssignmentState) String() string {
	return string(a)
}
