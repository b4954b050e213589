package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("sqlite gets a default DSN", func(t *testing.T) {
		p := &Profile{
			Mode:   "dev",
			Driver: "sqlite",
			Data:   t.TempDir(),
		}
		require.NoError(t, p.Validate())
		require.Contains(t, p.DSN, "taskpilot_dev.db")
	})

	t.Run("unknown mode falls back to dev", func(t *testing.T) {
		p := &Profile{
			Mode:   "staging",
			Driver: "sqlite",
			Data:   t.TempDir(),
		}
		require.NoError(t, p.Validate())
		require.Equal(t, "dev", p.Mode)
		require.True(t, p.IsDev())
	})

	t.Run("postgres requires a DSN", func(t *testing.T) {
		p := &Profile{
			Mode:   "prod",
			Driver: "postgres",
			Data:   t.TempDir(),
		}
		require.Error(t, p.Validate())
	})

	t.Run("unsupported driver is rejected", func(t *testing.T) {
		p := &Profile{
			Mode:   "dev",
			Driver: "mysql",
			Data:   t.TempDir(),
		}
		require.Error(t, p.Validate())
	})

	t.Run("dev gets a default secret", func(t *testing.T) {
		p := &Profile{
			Mode:   "dev",
			Driver: "sqlite",
			Data:   t.TempDir(),
		}
		require.NoError(t, p.Validate())
		require.NotEmpty(t, p.Secret)
	})

	t.Run("prod requires a secret", func(t *testing.T) {
		p := &Profile{
			Mode:   "prod",
			Driver: "sqlite",
			Data:   t.TempDir(),
		}
		require.Error(t, p.Validate())
	})

	t.Run("agent defaults applied", func(t *testing.T) {
		p := &Profile{
			Mode:   "dev",
			Driver: "sqlite",
			Data:   t.TempDir(),
		}
		require.NoError(t, p.Validate())
		require.Equal(t, 5, p.AgentMaxIterations)
		require.Equal(t, 45*time.Second, p.AgentTimeout)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TASKPILOT_AI_API_KEY", "sk-test")
	t.Setenv("TASKPILOT_AI_MODEL", "gpt-4o")
	t.Setenv("TASKPILOT_AGENT_MAX_ITERATIONS", "3")
	t.Setenv("TASKPILOT_AGENT_TIMEOUT", "10s")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "sk-test", p.AIAPIKey)
	require.Equal(t, "gpt-4o", p.AIModel)
	require.Equal(t, 3, p.AgentMaxIterations)
	require.Equal(t, 10*time.Second, p.AgentTimeout)
	require.True(t, p.IsAIEnabled())
}
