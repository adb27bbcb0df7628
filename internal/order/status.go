package order

import (
	"fmt"
	"strings"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// Statuses lists every member of the status enum.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// LiveStatuses are the states a placed order may be in; anything else is a
// legacy value repaired to confirmed at startup.
var LiveStatuses = []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Fulfilment only moves forward; skipping steps is allowed.
var fulfilmentRank = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

var cancellable = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
}

// ParseStatus accepts any member of the enum, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", apperr.InvalidStatus(fmt.Sprintf("invalid status %q", raw))
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return cancellable[from]
	}
	fromRank, ok := fulfilmentRank[from]
	if !ok {
		return false
	}
	toRank, ok := fulfilmentRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
