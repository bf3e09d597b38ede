package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShare_Grant(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	report := env.mustUpload(t, alice.ID, "/", file("plan.md", "# plan"))
	id := report.Files[0].FileID

	grant, err := env.shareSvc.Grant(ctx, alice.ID, id, " Bob ")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, grant.GranteeID)
	assert.Equal(t, alice.ID, grant.GranterID)

	_, err = env.shareSvc.Grant(ctx, alice.ID, id, "bob")
	assert.ErrorIs(t, err, ErrAlreadyShared)

	shared, err := env.shareSvc.IsSharedWith(ctx, id, bob.ID)
	require.NoError(t, err)
	assert.True(t, shared)

	grantees, err := env.shareSvc.Grantees(ctx, alice.ID, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, grantees)

	files, err := env.shareSvc.SharedWith(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "plan.md", files[0].DisplayName)
	assert.Equal(t, "alice", files[0].OwnerUsername)

	mine, err := env.shareSvc.SharedWith(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestShare_Errors(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	report := env.mustUpload(t, alice.ID, "/", file("a.txt", "a"))
	id := report.Files[0].FileID

	_, err := env.shareSvc.Grant(ctx, alice.ID, id, "alice")
	assert.ErrorIs(t, err, ErrShareWithSelf)

	_, err = env.shareSvc.Grant(ctx, alice.ID, id, "nobody")
	assert.ErrorIs(t, err, ErrGranteeNotFound)

	_, err = env.shareSvc.Grant(ctx, bob.ID, id, "alice")
	assert.ErrorIs(t, err, ErrFileNotFound, "only the owner can share")

	err = env.shareSvc.Revoke(ctx, alice.ID, id, "bob")
	assert.ErrorIs(t, err, ErrShareNotFound)

	_, err = env.shareSvc.Grantees(ctx, bob.ID, id)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
