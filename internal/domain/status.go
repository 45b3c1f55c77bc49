package domain

// BookStatus is the lifecycle state of a book in the catalog.
type BookStatus string

// Book lifecycle states.
const (
	StatusAvailable        BookStatus = "AVAILABLE"
	StatusCheckedOut       BookStatus = "CHECKED_OUT"
	StatusOverdue          BookStatus = "OVERDUE"
	StatusOutOfCirculation BookStatus = "OUT_OF_CIRCULATION"
	StatusUnavailable      BookStatus = "UNAVAILABLE"
)

// Transition names a catalog operation that moves a book between states.
type Transition string

// Catalog transitions.
const (
	TransitionLoan    Transition = "loan"
	TransitionOverdue Transition = "overdue"
	TransitionReturn  Transition = "return"
	TransitionRemove  Transition = "remove"
)

// transitions lists, per operation, the states it may start from and the state it ends in.
//
//nolint:gochecknoglobals // Static state machine table
var transitions = map[Transition]struct {
	from []BookStatus
	to   BookStatus
}{
	TransitionLoan:    {from: []BookStatus{StatusAvailable}, to: StatusCheckedOut},
	TransitionOverdue: {from: []BookStatus{StatusCheckedOut}, to: StatusOverdue},
	TransitionReturn:  {from: []BookStatus{StatusCheckedOut, StatusOverdue}, to: StatusAvailable},
	TransitionRemove:  {from: []BookStatus{StatusAvailable}, to: StatusOutOfCirculation},
}

// String returns the status name.
func (s BookStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusCheckedOut, StatusOverdue, StatusOutOfCirculation, StatusUnavailable:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves s.
func (s BookStatus) Terminal() bool {
	return s == StatusOutOfCirculation
}

// Next returns the state reached by applying t to s, and false if t is not legal from s.
func (s BookStatus) Next(t Transition) (BookStatus, bool) {
	rule, ok := transitions[t]
	if !ok {
		return s, false
	}
	for _, from := range rule.from {
		if from == s {
			return rule.to, true
		}
	}
	return s, false
}
