package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
	"github.com/vedran77/concorde/internal/repository/memory"
)

type stubTokens struct{}

func (stubTokens) Issue(userID uuid.UUID) (string, error) {
	return "token-" + userID.String(), nil
}

func validRegister() RegisterInput {
	return RegisterInput{
		Email:       "Alice@Example.com",
		Username:    "alice",
		DisplayName: "Alice",
		Password:    "Secret123",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore(), stubTokens{})

	res, err := svc.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "token-"+res.User.ID.String(), res.AccessToken)
	assert.NotNil(t, res.User.Friends)

	login, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "Wrong1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestRegisterConflicts(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewStore(), stubTokens{})
	_, err := svc.Register(ctx, validRegister())
	require.NoError(t, err)

	sameEmail := validRegister()
	sameEmail.Username = "alice2"
	_, err = svc.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrEmailTaken)

	sameName := validRegister()
	sameName.Email = "other@example.com"
	_, err = svc.Register(ctx, sameName)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterConcurrentSameIdentity(t *testing.T) {
	tests := []struct {
		name    string
		second  func(RegisterInput) RegisterInput
		wantErr error
	}{
		{
			name:    "same email",
			second:  func(in RegisterInput) RegisterInput { in.Username = "alice2"; return in },
			wantErr: ErrEmailTaken,
		},
		{
			name:    "same username",
			second:  func(in RegisterInput) RegisterInput { in.Email = "other@example.com"; return in },
			wantErr: ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			store.Users = slowCount[domain.User]{Collection: store.Users, delay: 5 * time.Millisecond}
			svc := NewAuthService(store, stubTokens{})

			inputs := []RegisterInput{validRegister(), tt.second(validRegister())}
			var next int
			var mu sync.Mutex
			errs := concurrently(len(inputs), func() error {
				mu.Lock()
				in := inputs[next]
				next++
				mu.Unlock()
				_, err := svc.Register(context.Background(), in)
				return err
			})

			var failed []error
			for _, err := range errs {
				if err != nil {
					failed = append(failed, err)
				}
			}
			require.Len(t, failed, 1)
			assert.ErrorIs(t, failed[0], tt.wantErr)
			assert.NotErrorIs(t, failed[0], domain.ErrConflict)

			n, err := store.Users.Count(context.Background(), repository.Eq("username", "alice"))
			require.NoError(t, err)
			assert.LessOrEqual(t, n, 1)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(memory.NewStore(), stubTokens{})

	input := validRegister()
	input.Password = "weak"
	_, err := svc.Register(context.Background(), input)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "password")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("Secret123")
	require.NoError(t, err)

	assert.True(t, verifyPassword("Secret123", hash))
	assert.False(t, verifyPassword("secret123", hash))
	assert.False(t, verifyPassword("Secret123", "garbage"))

	again, err := hashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}
