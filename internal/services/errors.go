package services

import "errors"

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrSelfLike          = errors.New("cannot like own profile")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrInvalidComplaint  = errors.New("invalid complaint")
	ErrPaymentTransition = errors.New("illegal payment status transition")
	ErrMediaLimit        = errors.New("media limit reached")
	ErrMediaUnavailable  = errors.New("media storage not configured")
)
