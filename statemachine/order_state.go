package statemachine

import (
	"errors"
	"strings"

	"quickbite-api/models"
)

// Actor is who requests a status change
type Actor string

const ActorAdmin Actor = "admin"

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Kitchen flow, forward only
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorAdmin},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: ActorAdmin},
	{From: models.StatusReady, To: models.StatusOutForDelivery, Actor: ActorAdmin},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorAdmin},
	// Admin can cancel anything that is not finished
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusOutForDelivery, To: models.StatusCancelled, Actor: ActorAdmin},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for " + string(actor) + ". " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

// ErrTooLateToCancel is returned once a paid order has entered fulfillment
var ErrTooLateToCancel = errors.New("order cannot be cancelled at this stage")

// CanCustomerCancel applies the customer cancellation rule. Only a paid order
// that the kitchen has started on is locked.
func CanCustomerCancel(payment models.PaymentStatus, status models.OrderStatus) error {
	if payment != models.PaymentSuccess {
		return nil
	}
	switch status {
	case models.StatusPreparing, models.StatusReady, models.StatusOutForDelivery:
		return ErrTooLateToCancel
	}
	return nil
}

// IsTerminal reports whether no further transition leaves status
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
