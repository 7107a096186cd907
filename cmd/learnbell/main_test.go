package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/learnbell/internal/model"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("https://lms.example.com/api"))
	assert.NoError(t, validateURL("  http://localhost:5000 "))
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("lms.example.com"))
}

func TestValidateRequired(t *testing.T) {
	check := validateRequired("Token")
	assert.NoError(t, check("abc"))
	assert.EqualError(t, check("   "), "Token is required")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", displayName(model.Session{UserID: "u1", UserName: "Ada"}))
	assert.Equal(t, "u1", displayName(model.Session{UserID: "u1"}))
}

func TestCompleteSession(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "u-9",
		"name": "Grace",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	sess, err := completeSession(model.Session{Token: token})
	require.NoError(t, err)
	assert.Equal(t, "u-9", sess.UserID)
	assert.Equal(t, "Grace", sess.UserName)

	sess, err = completeSession(model.Session{Token: token, UserID: "explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", sess.UserID)

	_, err = completeSession(model.Session{Token: "opaque"})
	assert.Error(t, err)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "login")
	assert.Contains(t, names, "logout")
	assert.Contains(t, names, "config")
}

func TestConfigPath_PrintsFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "path", "--config", path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, path+"\n", out.String())
}

func TestNewDeps_BuildsRepositoryAndSocket(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	deps := newDeps(cfg, nil, zap.NewNop())
	assert.NotNil(t, deps.NewRepository(model.Session{Token: "t", UserID: "u1"}))

	sock := deps.NewSocket()
	require.NotNil(t, sock)
	sock.Close()
}
