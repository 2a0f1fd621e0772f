package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acoshift/neppage/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestRenderPlan_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderPlan(&buf, domain.RoutePlan{}))
	assert.Equal(t, "routes are in sync\n", buf.String())
}

func TestRenderPlan(t *testing.T) {
	plan := domain.RoutePlan{
		Creates: []domain.RouteEntry{{
			Domains: []string{"blog.com"},
			Host:    "10.0.0.1",
			Port:    8080,
			Prefix:  "/blog",
			Enabled: true,
			TLS:     domain.RouteTLS{Cert: "CERT", Key: "PRIVATE"},
			PageID:  "p1",
		}},
		Deletes: []string{"r9"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderPlan(&buf, plan))
	out := buf.String()

	assert.Contains(t, out, "+1 create, ~0 update, -1 delete")
	assert.NotContains(t, out, "PRIVATE")

	body, _, _ := bytes.Cut(buf.Bytes(), []byte("\n\n"))
	var decoded struct {
		Creates []map[string]any `yaml:"creates"`
		Deletes []string         `yaml:"deletes"`
	}
	require.NoError(t, yaml.Unmarshal(body, &decoded))
	require.Len(t, decoded.Creates, 1)
	assert.Equal(t, "p1", decoded.Creates[0]["page_id"])
	assert.Equal(t, "/blog", decoded.Creates[0]["prefix"])
	assert.Equal(t, []string{"r9"}, decoded.Deletes)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "reload", "sync", "plan", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "neppage dev")
}
