// Package otp handles phone-number verification challenges. Delivery is an
// external concern behind the Provider interface; the core only needs to
// request a code for a phone and later verify what the user typed back.
package otp

import "context"

// Provider is the seam to the OTP/SMS collaborator.
type Provider interface {
	// RequestCode creates a verification challenge for phone and hands the
	// code to the delivery channel. The plaintext code never escapes the
	// provider.
	RequestCode(ctx context.Context, phone, ip string) error

	// VerifyCode checks code against the active challenge for phone and
	// consumes the challenge on success.
	VerifyCode(ctx context.Context, phone, code string) error
}
