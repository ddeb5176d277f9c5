package enums

// EventType is the type attribute of published domain events.
type EventType string

const (
	EventOrderPlaced EventType = "order.placed"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}
