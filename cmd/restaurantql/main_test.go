package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewwphillips/restaurantql"
	"github.com/andrewwphillips/restaurantql/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "getRestaurants(city: String!): [Restaurant!]!")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv(config.EnvPrefix+"_AUTH_SECRET", "cmd-secret")

	out, err := execute(t, "token", "--subject", "ops", "--ttl", "1h")
	require.NoError(t, err)
	subject, err := restaurantql.ParseToken([]byte("cmd-secret"), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)

	_, err = execute(t, "token", "--subject", "")
	assert.ErrorContains(t, err, "--subject is required")
}

func TestServeBadConfig(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv(config.EnvPrefix+"_UPSTREAM_API_KEY", "")
	_, err := execute(t, "serve", "--store_driver", "bolt")
	assert.ErrorContains(t, err, "API key is required")
}
