package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { logger.Replace(nil) })

	require.NoError(t, ConfigureLogging("debug", "console"))
	require.NoError(t, ConfigureLogging("", ""))
}
