package xmlparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<cbc:CBC_OECD xmlns:cbc="urn:oecd:ties:cbc:v2"
    xmlns:stf="urn:oecd:ties:cbcstf:v5"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="urn:oecd:ties:cbc:v2 CbcXML_v2.0.xsd">
</cbc:CBC_OECD>`

	ns := Analyze(doc)
	require.Equal(t, "urn:oecd:ties:cbc:v2", ns.Prefixes["cbc"])
	require.Equal(t, "urn:oecd:ties:cbcstf:v5", ns.Prefixes["stf"])
	require.True(t, ns.HasCbc)
	require.True(t, ns.HasStf)
	require.Equal(t, "UTF-8", ns.DeclaredEncoding)
	require.Equal(t, []string{"urn:oecd:ties:cbc:v2 CbcXML_v2.0.xsd"}, ns.SchemaLocations)
	require.Empty(t, ns.Default)
}

func TestAnalyzeDefaultNamespace(t *testing.T) {
	ns := Analyze(`<CBC_OECD xmlns="urn:oecd:ties:cbc:v2"/>`)
	require.Equal(t, "urn:oecd:ties:cbc:v2", ns.Default)
	require.True(t, ns.HasCbc)
	require.False(t, ns.HasStf)
}

func TestAnalyzeNoDeclarations(t *testing.T) {
	ns := Analyze(`<CBC_OECD/>`)
	require.Empty(t, ns.Default)
	require.Empty(t, ns.Prefixes)
	require.False(t, ns.HasCbc)
	require.Empty(t, ns.DeclaredEncoding)
}

func TestPrefixFor(t *testing.T) {
	ns := Analyze(`<r xmlns="urn:default" xmlns:b="urn:shared" xmlns:a="urn:shared"/>`)

	prefix, ok := ns.PrefixFor("urn:default")
	require.True(t, ok)
	require.Empty(t, prefix)

	// Duplicate declarations resolve to the smallest prefix.
	prefix, ok = ns.PrefixFor("urn:shared")
	require.True(t, ok)
	require.Equal(t, "a", prefix)

	_, ok = ns.PrefixFor("urn:unknown")
	require.False(t, ok)

	_, ok = ns.PrefixFor("")
	require.False(t, ok)
}
