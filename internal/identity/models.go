package identity

import "time"

// RoleAdmin and RoleUser are the two roles the application ships with. Roles
// live in their own table so deployments can add more without a migration of
// user rows.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account row. Password holds the bcrypt hash, never plaintext.
type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
}

// Role is a named role row.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Profile is the caller-facing summary of a user, embedded in task, comment,
// and audit responses. FullName mirrors the username until profiles grow a
// dedicated display name column.
type Profile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileOf builds the profile summary for a user.
func ProfileOf(u User) Profile {
	return Profile{
		ID:        u.ID,
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SignupRequest is the payload for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup, login, and me.
type AuthResponse struct {
	AccessToken string  `json:"access_token"`
	User        Profile `json:"user"`
	Role        string  `json:"role"`
}

// UserWithRole is the admin listing shape for GET /users.
type UserWithRole struct {
	Profile
	Role string `json:"role"`
}

// AssignRoleRequest is the payload for PUT /users/{id}/role.
type AssignRoleRequest struct {
	Role string `json:"role"`
}
