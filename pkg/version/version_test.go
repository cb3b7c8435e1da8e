package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserAgentCarriesVersion(t *testing.T) {
	Set("")
	require.NotEmpty(t, Version())
	require.True(t, strings.HasPrefix(UserAgent(), ServiceName+"/"))
	require.True(t, strings.HasSuffix(UserAgent(), Version()))
}
