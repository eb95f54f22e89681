package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafeledger/internal/log"
	"cafeledger/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthError is returned when credentials cannot be resolved to a role.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %q: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Identity is an authenticated user.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Resolver turns credentials into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, username, password string) (Identity, error)
}

var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cafeledger:users"))

// UserID derives the stable identifier of username.
func UserID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(username))).String()
}

type staticUser struct {
	role Role
	hash []byte
}

// StaticResolver checks credentials against a fixed table of bcrypt hashes.
type StaticResolver struct {
	users map[string]staticUser
}

// ParseUsers reads "name:role:bcrypt-hash" entries separated by commas.
func ParseUsers(raw string) (*StaticResolver, error) {
	r := &StaticResolver{users: map[string]staticUser{}}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid user entry %q: want name:role:hash", entry)
		}
		role, ok := ParseRole(parts[1])
		if !ok {
			return nil, fmt.Errorf("invalid role %q for user %q", parts[1], parts[0])
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %q: %w", parts[0], err)
		}
		r.users[strings.ToLower(parts[0])] = staticUser{role: role, hash: []byte(parts[2])}
	}
	if len(r.users) == 0 {
		return nil, errors.New("no users configured")
	}
	return r, nil
}

// NewStaticResolver hashes plain passwords. Used by tests and ledgerctl.
func NewStaticResolver(users map[string]Role, passwords map[string]string) (*StaticResolver, error) {
	r := &StaticResolver{users: map[string]staticUser{}}
	for name, role := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(passwords[name]), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", name, err)
		}
		r.users[strings.ToLower(name)] = staticUser{role: role, hash: hash}
	}
	return r, nil
}

func (r *StaticResolver) Resolve(_ context.Context, username, password string) (Identity, error) {
	u, ok := r.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return Identity{}, &AuthError{Username: username, Err: ErrInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return Identity{}, &AuthError{Username: username, Err: ErrInvalidCredentials}
	}
	return Identity{UserID: UserID(username), Username: strings.TrimSpace(username), Role: u.role}, nil
}

// ProfileResolver lets a stored profile override the role that the wrapped
// resolver assigned. A failed lookup keeps the wrapped role.
type ProfileResolver struct {
	next     Resolver
	profiles store.ProfileReader
	logger   *log.Logger
}

func NewProfileResolver(next Resolver, profiles store.ProfileReader, logger *log.Logger) *ProfileResolver {
	return &ProfileResolver{next: next, profiles: profiles, logger: logger.WithComponent(log.ComponentAuth)}
}

func (r *ProfileResolver) Resolve(ctx context.Context, username, password string) (Identity, error) {
	id, err := r.next.Resolve(ctx, username, password)
	if err != nil {
		return Identity{}, err
	}
	stored, err := r.profiles.ProfileRole(ctx, id.UserID)
	if err != nil {
		r.logger.WarnContext(ctx, "Profile lookup failed, keeping resolved role",
			log.FieldUsername, id.Username, log.FieldError, err)
		return id, nil
	}
	if role, ok := ParseRole(stored); ok {
		id.Role = role
	}
	return id, nil
}
