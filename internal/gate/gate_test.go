package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreProvisionCycle(t *testing.T) {
	s := NewStoreAt(t.TempDir())
	require.False(t, s.Provisioned())

	require.NoError(t, s.Provision())
	require.True(t, s.Provisioned())

	// provisioning again rotates the material without error
	require.NoError(t, s.Provision())
	require.True(t, s.Provisioned())

	s.Reset()
	require.False(t, s.Provisioned())

	// reset of nothing is swallowed
	s.Reset()
}

func TestStoreAuthenticator(t *testing.T) {
	s := NewStoreAt(t.TempDir())
	a := &StoreAuthenticator{Store: s}

	require.Error(t, a.Authenticate(context.Background(), "Unlock"), "unprovisioned gate must fail")

	require.NoError(t, s.Provision())
	require.NoError(t, a.Authenticate(context.Background(), "Unlock"))
}
