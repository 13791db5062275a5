// Package tokenpkg creates and verifies access tokens.
package tokenpkg

import "time"

// Maker is an interface for managing tokens.
//
//go:generate mockgen -source maker.go -destination maker_mock.go -package tokenpkg
type Maker interface {
	// CreateToken creates a new token for the specific user and duration.
	CreateToken(userID int32, role string, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}
