package main

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("iab"))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseOpen(t *testing.T) {
	cli, ctx := parse(t, "open", "example.com", "--features", "location=yes,zoom=no", "-d")

	assert.Equal(t, "open <url>", ctx.Command())
	assert.Equal(t, "example.com", cli.Open.URL)
	assert.Equal(t, "_blank", cli.Open.Target)
	assert.Equal(t, "location=yes,zoom=no", cli.Open.Features)
	assert.True(t, cli.Debug)
}

func TestParseServeAndManage(t *testing.T) {
	cli, ctx := parse(t, "serve", "--listen", ":9999", "--headless")
	assert.Equal(t, "serve", ctx.Command())
	assert.Equal(t, ":9999", cli.Serve.Listen)
	assert.True(t, cli.Serve.Headless)

	_, ctx = parse(t, "config", "show")
	assert.Equal(t, "config show", ctx.Command())

	cli, ctx = parse(t, "profiles", "clear", "work")
	assert.Equal(t, "profiles clear <name>", ctx.Command())
	assert.Equal(t, "work", cli.Profiles.Clear.Name)
}

func TestConfigOverrides(t *testing.T) {
	o := configOverrides(true, "work")
	assert.True(t, o.Browser.Headless)
	assert.Equal(t, "work", o.Browser.Profile)
	assert.False(t, o.Browser.StorageEnabled)
}
