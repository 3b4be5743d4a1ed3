package repositories

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
	ErrWaitlistEntryExists   = errors.New("waitlist entry already exists")

	ErrOutfitNotFound = errors.New("outfit not found")
	ErrRatingNotFound = errors.New("rating not found")

	ErrSessionNotFound = errors.New("session not found")

	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentAlreadyCredited = errors.New("payment already credited")
)
