package main

import (
	"bytes"
	"strings"
	"testing"

	"facility-crm/pkg/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "crmctl-test-secret")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--employee", "7"})
	require.NoError(t, cmd.Execute())

	jwtSvc := service.NewJWTService("crmctl-test-secret", 0, zap.NewNop())
	claims, err := jwtSvc.ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.EmployeeID)
}

func TestTokenCmd_RequiresEmployee(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token"})
	assert.Error(t, cmd.Execute())
}
