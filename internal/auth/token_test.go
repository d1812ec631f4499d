package auth_test

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sainikcanteen/storefront/internal/auth"
)

func TestManager_GenerateAndParse(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	userID := uuid.Must(uuid.NewV4())
	token, err := manager.Generate(userID, "soldier@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "soldier@example.com", claims.Email)
}

func TestManager_Parse_WrongSecret(t *testing.T) {
	issuer := auth.NewManager("secret-one", time.Hour)
	verifier := auth.NewManager("secret-two", time.Hour)

	token, err := issuer.Generate(uuid.Must(uuid.NewV4()), "soldier@example.com")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.Error(t, err)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestManager_Parse_Expired(t *testing.T) {
	manager := auth.NewManager("test-secret", -time.Minute)

	token, err := manager.Generate(uuid.Must(uuid.NewV4()), "soldier@example.com")
	require.NoError(t, err)

	_, err = manager.Parse(token)
	require.Error(t, err)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestManager_Parse_Garbage(t *testing.T) {
	manager := auth.NewManager("test-secret", time.Hour)

	_, err := manager.Parse("not.a.token")
	require.Error(t, err)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
