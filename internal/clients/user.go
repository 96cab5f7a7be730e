package clients

import (
	"context"
	"fmt"
)

// User is the user service's account record.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserClient talks to the user service.
type UserClient struct {
	*baseClient
}

// NewUserClient creates a user service client.
func NewUserClient(opts Options) *UserClient {
	return &UserClient{baseClient: newBaseClient("user", opts)}
}

// Login authenticates a user and returns id, email and role.
func (c *UserClient) Login(ctx context.Context, creds *Credentials) (*User, error) {
	var user User
	if err := c.postJSON(ctx, "/api/users/login", nil, creds, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a new account.
func (c *UserClient) Register(ctx context.Context, user *User) (*User, error) {
	var created User
	if err := c.postJSON(ctx, "/api/users/register", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListUsers fetches all user accounts (admin view).
func (c *UserClient) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/api/users/all", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAdmins fetches all admin accounts.
func (c *UserClient) ListAdmins(ctx context.Context) ([]User, error) {
	var admins []User
	if err := c.getJSON(ctx, "/api/users/alladmins", nil, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// CreateUser adds an account on behalf of an admin.
func (c *UserClient) CreateUser(ctx context.Context, user *User) (*User, error) {
	var created User
	if err := c.postJSON(ctx, "/api/users/add", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser replaces an account record.
func (c *UserClient) UpdateUser(ctx context.Context, userID int64, user *User) (*User, error) {
	var updated User
	if err := c.putJSON(ctx, fmt.Sprintf("/api/users/%d", userID), user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes an account.
func (c *UserClient) DeleteUser(ctx context.Context, userID int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/users/%d", userID), nil)
}
