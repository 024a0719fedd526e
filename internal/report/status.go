package report

// ServiceStatus is the state of a condition based service.
type ServiceStatus string

const (
	ServiceStatusOK      ServiceStatus = "OK"
	ServiceStatusOverdue ServiceStatus = "OVERDUE"
	ServiceStatusPending ServiceStatus = "PENDING"
	ServiceStatusUnknown ServiceStatus = "UNKNOWN"
)

// CheckControlStatus is the severity of a check control message.
type CheckControlStatus string

const (
	CheckControlStatusOK       CheckControlStatus = "OK"
	CheckControlStatusLow      CheckControlStatus = "LOW"
	CheckControlStatusMedium   CheckControlStatus = "MEDIUM"
	CheckControlStatusHigh     CheckControlStatus = "HIGH"
	CheckControlStatusCritical CheckControlStatus = "CRITICAL"
	CheckControlStatusUnknown  CheckControlStatus = "UNKNOWN"
)

var (
	serviceStatuses = NewClosedEnum("ServiceStatus",
		ServiceStatusOK,
		ServiceStatusOverdue,
		ServiceStatusPending,
		ServiceStatusUnknown,
	)

	checkControlStatuses = NewClosedEnum("CheckControlStatus",
		CheckControlStatusOK,
		CheckControlStatusLow,
		CheckControlStatusMedium,
		CheckControlStatusHigh,
		CheckControlStatusCritical,
		CheckControlStatusUnknown,
	)
)

// ParseServiceStatus converts a raw backend literal into a ServiceStatus.
// Matching is exact; anything else yields an *UnknownStatusCodeError.
func ParseServiceStatus(raw string) (ServiceStatus, error) {
	return serviceStatuses.Parse(raw)
}

// ParseCheckControlStatus converts a raw backend literal into a CheckControlStatus.
func ParseCheckControlStatus(raw string) (CheckControlStatus, error) {
	return checkControlStatuses.Parse(raw)
}

// ClosedEnum is a named, fixed set of string literals.
type ClosedEnum[T ~string] struct {
	name   string
	values []T
}

func NewClosedEnum[T ~string](name string, values ...T) ClosedEnum[T] {
	return ClosedEnum[T]{name: name, values: values}
}

// Parse matches raw exactly against the members. Anything else yields an
// *UnknownStatusCodeError naming the enumeration.
func (e ClosedEnum[T]) Parse(raw string) (T, error) {
	for _, v := range e.values {
		if string(v) == raw {
			return v, nil
		}
	}
	var zero T
	return zero, &UnknownStatusCodeError{Enum: e.name, Value: raw}
}
