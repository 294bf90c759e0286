package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docuhub/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("test-secret", time.Hour)

	user := &domain.User{ID: "1", Username: "alice"}
	signed, err := tokens.Issue(user, "user")
	req.NoError(err)
	req.NotEmpty(signed)

	got, err := tokens.Verify(signed)
	req.NoError(err)
	req.Equal(user.ID, got.ID)
	req.Equal(user.Username, got.Username)
}

func TestVerifyFailures(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("test-secret", time.Hour)

	_, err := tokens.Verify("")
	req.ErrorIs(err, ErrTokenMissing)

	_, err = tokens.Verify("not.a.token")
	req.ErrorIs(err, ErrTokenInvalid)

	other := NewTokenManager("different-secret", time.Hour)
	signed, err := other.Issue(&domain.User{ID: "1", Username: "alice"}, "user")
	req.NoError(err)
	_, err = tokens.Verify(signed)
	req.ErrorIs(err, ErrTokenInvalid)
}

func TestVerifyExpired(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("test-secret", -time.Minute)

	signed, err := tokens.Issue(&domain.User{ID: "1", Username: "alice"}, "user")
	req.NoError(err)

	_, err = tokens.Verify(signed)
	req.ErrorIs(err, ErrTokenInvalid)
}
