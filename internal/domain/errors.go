// Package domain holds the error taxonomy shared by every reward engine.
package domain

import (
	"errors"
	"fmt"
)

type Class int

const (
	// Integrity covers storage failures and broken invariants. The unit of
	// work is rolled back and the user sees a generic failure.
	Integrity Class = iota
	// Validation rejects malformed input; conversational flows re-prompt.
	Validation
	// Policy rejects well-formed input that a rule forbids.
	Policy
)

func (c Class) String() string {
	switch c {
	case Validation:
		return "validation"
	case Policy:
		return "policy"
	default:
		return "integrity"
	}
}

type Error struct {
	Class   Class
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(class Class, code, msg string) *Error {
	return &Error{Class: class, Code: code, Message: msg}
}

var (
	ErrInvalidRecipient  = newError(Validation, "invalid_recipient", "Recipient must be a numeric account ID.")
	ErrSelfTransfer      = newError(Validation, "self_transfer", "You cannot send coins to yourself.")
	ErrInvalidAmount     = newError(Validation, "invalid_amount", "Amount must be a number like 10 or 10.50.")
	ErrNonPositiveAmount = newError(Validation, "non_positive_amount", "Amount must be greater than zero.")
	ErrInvalidOption     = newError(Validation, "invalid_option", "That answer is not one of the options.")
	ErrEmptyOrder        = newError(Validation, "empty_order", "Order text cannot be empty.")
	ErrInvalidReferral   = newError(Validation, "invalid_referral", "That referral code is not valid.")

	ErrTooFast           = newError(Policy, "rate_limited", "You are acting too fast. Wait a moment and try again.")
	ErrAlreadyClaimed    = newError(Policy, "already_claimed", "You already claimed today's bonus.")
	ErrAlreadySpun       = newError(Policy, "already_spun", "You already spun the wheel today.")
	ErrInsufficientFunds = newError(Policy, "insufficient_funds", "Insufficient balance.")
	ErrDailySendCap      = newError(Policy, "daily_send_cap", "This transfer exceeds your daily sending limit.")
	ErrBanned            = newError(Policy, "banned", "Your account is restricted.")
	ErrRecipientBanned   = newError(Policy, "recipient_banned", "The recipient cannot receive transfers.")
	ErrNoSession         = newError(Policy, "no_session", "There is no active transfer. Start one with /send.")
	ErrStaleTransfer     = newError(Policy, "stale_transfer", "This transfer prompt is out of date. Use the latest one.")
	ErrStaleQuestion     = newError(Policy, "stale_question", "This question is no longer active.")
	ErrNoQuestions       = newError(Policy, "no_questions", "No quiz questions are available right now.")
	ErrReferralSelf      = newError(Policy, "referral_self", "You cannot refer yourself.")
	ErrReferralLimit     = newError(Policy, "referral_limit", "That referrer has reached the referral limit.")
	ErrNotAdmin          = newError(Policy, "not_admin", "This command is for administrators only.")
)

// ErrBalanceMismatch marks an account whose cached balance drifted from the
// sum of its ledger events.
var ErrBalanceMismatch = errors.New("balance does not match ledger")

// ClassOf reports the class of err; anything outside the taxonomy is an
// integrity fault.
func ClassOf(err error) Class {
	var de *Error
	if errors.As(err, &de) {
		return de.Class
	}
	return Integrity
}

// Message returns the user-facing text for err, hiding integrity details.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "Something went wrong. Please try again later."
}

// IntegrityError wraps a storage failure with the operation that hit it.
func IntegrityError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
