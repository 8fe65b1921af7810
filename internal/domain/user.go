/**
 * @description
 * This file defines the user domain model. Users are reference targets for
 * subscriptions; the service owns no mutation logic over them beyond creation.
 * Email and phone are stored encrypted and only decrypted at the API boundary.
 */
package domain

import "time"

// User represents an account holder as stored in the database. The encrypted
// fields never leave the service in their stored form.
type User struct {
	ID             int64     `json:"id"`
	EncryptedEmail string    `json:"-"`
	EncryptedPhone string    `json:"-"`
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// UserOut is the API representation of a user with the email decrypted.
type UserOut struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
