package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "other"))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperatorRepo()
	iss, err := NewIssuer("", time.Hour)
	require.NoError(t, err)

	require.NoError(t, EnsureOperator(ctx, repo, "Admin", "pw", true))
	require.NoError(t, EnsureOperator(ctx, repo, "admin", "changed", false), "повтор не перезаписывает")

	token, op, err := Login(ctx, repo, iss, "ADMIN", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin", op.Name)
	assert.True(t, op.IsAdmin)
	assert.False(t, op.LastLogin.IsZero())

	claims, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Operator)
	assert.True(t, claims.IsAdmin)

	_, _, err = Login(ctx, repo, iss, "admin", "changed")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = Login(ctx, repo, iss, "nobody", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestMemoryOperatorRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOperatorRepo()
	testOperatorRepo(t, ctx, repo)
}

// Требует MongoDB: INTERACTIONS_TEST_MONGO_URI=mongodb://localhost:27017
func TestMongoOperatorRepo(t *testing.T) {
	uri := os.Getenv("INTERACTIONS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INTERACTIONS_TEST_MONGO_URI не задан")
	}
	ctx := context.Background()
	repo, err := NewMongoOperatorRepo(ctx, MongoConfig{
		URI:        uri,
		Database:   "interactions_test",
		Collection: "operators_" + time.Now().Format("150405.000000"),
	})
	require.NoError(t, err)
	defer func() {
		repo.collection.Drop(ctx)
		repo.Close()
	}()
	testOperatorRepo(t, ctx, repo)
}

func testOperatorRepo(t *testing.T, ctx context.Context, repo OperatorRepo) {
	t.Helper()

	_, err := repo.Get(ctx, "ops")
	assert.ErrorIs(t, err, ErrOperatorNotFound)

	require.NoError(t, repo.Create(ctx, &Operator{Name: "Ops", PasswordHash: "h", CreatedAt: time.Now()}))
	assert.ErrorIs(t, repo.Create(ctx, &Operator{Name: "ops"}), ErrOperatorExists)

	op, err := repo.Get(ctx, " OPS ")
	require.NoError(t, err)
	assert.Equal(t, "ops", op.Name)
	assert.Equal(t, "h", op.PasswordHash)

	at := time.Now().Truncate(time.Millisecond).UTC()
	require.NoError(t, repo.TouchLogin(ctx, "ops", at))
	op, err = repo.Get(ctx, "ops")
	require.NoError(t, err)
	assert.True(t, at.Equal(op.LastLogin))

	assert.ErrorIs(t, repo.TouchLogin(ctx, "ghost", at), ErrOperatorNotFound)
}
