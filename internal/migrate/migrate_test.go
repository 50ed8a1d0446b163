package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parseMapping(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.NotEmpty(t, doc.Content)
	require.Equal(t, yaml.MappingNode, doc.Content[0].Kind)
	return doc.Content[0]
}

func get(fm *yaml.Node, key string) string {
	n := lookup(fm, key)
	if n == nil {
		return "<absent>"
	}
	return n.Value
}

func TestVersionExtraction(t *testing.T) {
	assert.Equal(t, 0, Version(parseMapping(t, "id: br-aaaa\ntitle: x")))
	assert.Equal(t, 1, Version(parseMapping(t, "brd: 1\nid: br-aaaa")))
	assert.Equal(t, 9, Version(parseMapping(t, "schema_version: 9\nid: br-aaaa")))
}

func TestApplyFromV0(t *testing.T) {
	fm := parseMapping(t, `
id: br-aaaa
title: old issue
priority: P1
status: todo
labels: [infra]
updated_at: 2023-04-01T10:00:00Z
`)
	require.NoError(t, Apply(fm))

	assert.Equal(t, "9", get(fm, "schema_version"))
	assert.Equal(t, "<absent>", get(fm, "brd"), "legacy version key must be dropped")
	assert.Equal(t, "open", get(fm, "status"), "todo renames to open")
	assert.Equal(t, "<absent>", get(fm, "labels"))
	assert.NotEqual(t, "<absent>", get(fm, "tags"), "labels renames to tags")
	assert.NotNil(t, lookup(fm, "owner"), "owner added as null")
	assert.Equal(t, "<absent>", get(fm, "updated_at"))
}

func TestApplyDerivesTimestampsFromUpdatedAt(t *testing.T) {
	const stamp = "2023-04-01T10:00:00Z"

	doing := parseMapping(t, "schema_version: 7\nstatus: doing\nupdated_at: "+stamp)
	require.NoError(t, Apply(doing))
	assert.Equal(t, stamp, get(doing, "started_at"))
	assert.Equal(t, "<absent>", get(doing, "completed_at"))

	done := parseMapping(t, "schema_version: 7\nstatus: done\nupdated_at: "+stamp)
	require.NoError(t, Apply(done))
	assert.Equal(t, stamp, get(done, "started_at"))
	assert.Equal(t, stamp, get(done, "completed_at"))

	open := parseMapping(t, "schema_version: 7\nstatus: open\nupdated_at: "+stamp)
	require.NoError(t, Apply(open))
	assert.Equal(t, "<absent>", get(open, "started_at"))
	assert.Equal(t, "<absent>", get(open, "completed_at"))
	assert.Equal(t, "<absent>", get(open, "updated_at"))
}

func TestApplyIdempotentAtCurrent(t *testing.T) {
	fm := parseMapping(t, `
schema_version: 9
id: br-aaaa
title: current issue
status: open
owner: alice
`)
	require.NoError(t, Apply(fm))
	first, err := yaml.Marshal(fm)
	require.NoError(t, err)

	require.NoError(t, Apply(fm))
	second, err := yaml.Marshal(fm)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestApplyRejectsNewerVersion(t *testing.T) {
	fm := parseMapping(t, "schema_version: 999\nid: br-aaaa")
	err := Apply(fm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999")
}

func TestOwnerNotOverwritten(t *testing.T) {
	fm := parseMapping(t, "schema_version: 2\nowner: alice")
	require.NoError(t, Apply(fm))
	assert.Equal(t, "alice", get(fm, "owner"))
}
