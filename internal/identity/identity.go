// Package identity manages registered accounts and the active session
// identity, both persisted as JSON blobs in the key-value store.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/quizmaster/quizmaster/internal/kv"
	"github.com/quizmaster/quizmaster/internal/model"
)

const (
	accountsKey = "quizmaster:accounts"
	identityKey = "quizmaster:identity"
)

// UnknownName is returned when a creator account cannot be resolved.
const UnknownName = "Unknown"

// Store holds accounts and the active identity.
type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// Register creates a new account and logs it in. It fails with a
// ValidationError when name, email or password is empty, and with
// ErrDuplicateEmail when the email is already taken. Nothing is written
// on failure.
func (s *Store) Register(ctx context.Context, name, email, password string) (model.Identity, error) {
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if err := model.NewValidationError(missing); err != nil {
		return model.Identity{}, err
	}

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	for _, a := range accounts {
		if a.Email == email {
			return model.Identity{}, model.ErrDuplicateEmail
		}
	}

	account := model.Account{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: password,
	}
	accounts = append(accounts, account)
	if err := s.saveAccounts(ctx, accounts); err != nil {
		return model.Identity{}, err
	}

	id := account.Identity()
	if err := s.setIdentity(ctx, id); err != nil {
		return model.Identity{}, err
	}
	slog.Info("registered account", "id", account.ID, "email", account.Email)
	return id, nil
}

// Authenticate logs in on an exact email and password match, otherwise
// fails with ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.Identity, error) {
	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	for _, a := range accounts {
		if a.Email == email && a.Password == password {
			id := a.Identity()
			if err := s.setIdentity(ctx, id); err != nil {
				return model.Identity{}, err
			}
			slog.Info("logged in", "id", a.ID, "email", a.Email)
			return id, nil
		}
	}
	return model.Identity{}, model.ErrInvalidCredentials
}

// Current returns the active session identity, or nil when nobody is
// logged in.
func (s *Store) Current(ctx context.Context) (*model.Identity, error) {
	raw, ok, err := s.kv.Get(ctx, identityKey)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var id model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		slog.Warn("identity blob corrupted, treating as logged out", "error", err)
		return nil, nil
	}
	if id.ID == "" {
		slog.Warn("identity blob missing id, treating as logged out")
		return nil, nil
	}
	return &id, nil
}

// Logout clears the active identity.
func (s *Store) Logout(ctx context.Context) error {
	return s.kv.Delete(ctx, identityKey)
}

// ResolveName looks up the display name for an account id. Missing
// accounts resolve to the UnknownName sentinel rather than an error.
func (s *Store) ResolveName(ctx context.Context, accountID string) string {
	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		slog.Warn("resolve creator name", "error", err)
		return UnknownName
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a.Name
		}
	}
	return UnknownName
}

// Accounts returns every registered account. Used by the export command.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	return s.loadAccounts(ctx)
}

func (s *Store) loadAccounts(ctx context.Context) ([]model.Account, error) {
	raw, ok, err := s.kv.Get(ctx, accountsKey)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if !ok {
		return nil, nil
	}
	accounts, err := decodeAccounts(raw)
	if err != nil {
		// Corrupted blob: start over with an empty store instead of
		// locking every user out.
		slog.Warn("accounts blob corrupted, treating as empty", "error", err)
		return nil, nil
	}
	return accounts, nil
}

// decodeAccounts validates the persisted accounts blob. Entries missing an
// id or email are rejected as corruption rather than silently kept.
func decodeAccounts(raw string) ([]model.Account, error) {
	var accounts []model.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataCorruption, err)
	}
	for _, a := range accounts {
		if a.ID == "" || a.Email == "" {
			return nil, fmt.Errorf("%w: account entry missing id or email", model.ErrDataCorruption)
		}
	}
	return accounts, nil
}

func (s *Store) saveAccounts(ctx context.Context, accounts []model.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	return s.kv.Set(ctx, accountsKey, string(data))
}

func (s *Store) setIdentity(ctx context.Context, id model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return s.kv.Set(ctx, identityKey, string(data))
}
