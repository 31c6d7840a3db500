package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/config"
)

const sampleMap = `com.example.Widget -> a.b.c:
    int count -> a
    1:1:void onCreate(android.os.Bundle) -> a
    java.lang.String resolveName(int,int) -> b
com.example.Other -> a.b.d:
    int x -> a
`

func TestParseProguardMapClassesAndMembers(t *testing.T) {
	m, diagErr := config.ParseProguardMap(strings.NewReader(sampleMap))
	require.Nil(t, diagErr)

	assert.Equal(t, "a.b.c", m.Classes["com.example.Widget"])
	assert.Equal(t, "a.b.d", m.Classes["com.example.Other"])

	widget := m.Members["com.example.Widget"]
	require.NotNil(t, widget)
	assert.Equal(t, "a", widget["count"])
	assert.Equal(t, "a", widget["onCreate"])
	assert.Equal(t, "b", widget["resolveName"])

	assert.Equal(t, "a", m.Members["com.example.Other"]["x"])
}

func TestParseProguardMapRejectsMemberBeforeClass(t *testing.T) {
	_, diagErr := config.ParseProguardMap(strings.NewReader("    int x -> a\n"))
	require.NotNil(t, diagErr)
}

func TestParseProguardMapIgnoresCommentsAndBlankLines(t *testing.T) {
	input := "# generated mapping\n\ncom.example.Widget -> a.b.c:\n    int count -> a\n"
	m, diagErr := config.ParseProguardMap(strings.NewReader(input))
	require.Nil(t, diagErr)
	assert.Equal(t, "a.b.c", m.Classes["com.example.Widget"])
	assert.Equal(t, "a", m.Members["com.example.Widget"]["count"])
}
