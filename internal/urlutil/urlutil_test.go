package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAgainstOrigin(t *testing.T) {
	testCases := []struct {
		origin   string
		ref      string
		expected string
	}{
		{"https://liquipedia.net", "/commons/images/a.png", "https://liquipedia.net/commons/images/a.png"},
		{"https://liquipedia.net/", "/commons/images/a.png", "https://liquipedia.net/commons/images/a.png"},
		{"http://127.0.0.1:8080", "img/a.png", "http://127.0.0.1:8080/img/a.png"},
		{"https://liquipedia.net", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"https://liquipedia.net", "//cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"https://liquipedia.net", "", ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, ResolveAgainstOrigin(test.origin, test.ref), test.ref)
	}
}

func TestIsPortalPlayerLink(t *testing.T) {
	const game = "/rainbowsix/"

	require.True(t, IsPortalPlayerLink("/rainbowsix/Shaiiko", "Shaiiko", game))
	require.False(t, IsPortalPlayerLink("/rainbowsix/File_Logo.png", "logo", game))
	require.False(t, IsPortalPlayerLink("/rainbowsix/Portal:Players", "Players", game))
	require.False(t, IsPortalPlayerLink("/counterstrike/s1mple", "s1mple", game))
	require.False(t, IsPortalPlayerLink("/rainbowsix/Shaiiko", "", game))
}

func TestIsTournamentPlayerLink(t *testing.T) {
	const game = "/rainbowsix/"

	require.True(t, IsTournamentPlayerLink("/rainbowsix/Beaulo", "Beaulo", game))
	require.False(t, IsTournamentPlayerLink("/rainbowsix/Team_BDS", "BDS", game))
	require.False(t, IsTournamentPlayerLink("/rainbowsix/Category:Players", "Players", game))
	require.False(t, IsTournamentPlayerLink("/rainbowsix/index.php?title=x", "x y", game))
	require.False(t, IsTournamentPlayerLink("/rainbowsix/Beaulo", "•", game))
	require.False(t, IsTournamentPlayerLink("/rainbowsix/B", "B", game))
	require.False(t, IsTournamentPlayerLink("/valorant/TenZ", "TenZ", game))
}

func TestNormalize(t *testing.T) {
	normalized, host, err := Normalize("https://WWW.Liquipedia.net/rainbowsix/Shaiiko/#Career")
	require.NoError(t, err)
	require.Equal(t, "liquipedia.net", host)
	require.Equal(t, "https://liquipedia.net/rainbowsix/Shaiiko", normalized)

	require.Equal(t, "liquipedia.net", HostOf("https://WWW.Liquipedia.net/rainbowsix/"))
}
