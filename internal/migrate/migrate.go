// Package migrate upgrades issue frontmatter from any historical schema
// version to the current one. Migrations operate on the loose yaml.Node tree
// rather than the typed record, so old shapes never leak into the decoder.
package migrate

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Current is the schema version this build reads and writes.
const Current = 9

// A step transforms a frontmatter mapping from version k to k+1.
// Steps are pure over the tree and must set the version key on exit.
type step func(fm *yaml.Node)

var steps = []step{
	migrateV0,
	migrateV1,
	migrateV2,
	migrateV3,
	bumpTo(5),
	bumpTo(6),
	migrateV6,
	migrateV7,
	bumpTo(9),
}

// Version extracts the declared schema version from a frontmatter mapping.
// Early files carried the version under a "brd" key; files predating that
// carry none and are version 0.
func Version(fm *yaml.Node) int {
	if v, ok := intValue(fm, "schema_version"); ok {
		return v
	}
	if v, ok := intValue(fm, "brd"); ok {
		return v
	}
	return 0
}

// Apply migrates fm in place to Current. Data already at Current is
// untouched. A version beyond Current fails closed.
func Apply(fm *yaml.Node) error {
	v := Version(fm)
	if v > Current {
		return fmt.Errorf("schema version %d is newer than supported version %d; upgrade brd", v, Current)
	}
	for k := v; k < Current; k++ {
		steps[k](fm)
	}
	return nil
}

// v0 -> v1: introduce the version field.
func migrateV0(fm *yaml.Node) {
	setScalar(fm, "brd", "1", "!!int")
}

// v1 -> v2: rename the version key from brd to schema_version.
func migrateV1(fm *yaml.Node) {
	renameKey(fm, "brd", "schema_version")
	setScalar(fm, "schema_version", "2", "!!int")
}

// v2 -> v3: add owner: null if missing.
func migrateV2(fm *yaml.Node) {
	if lookup(fm, "owner") == nil {
		setScalar(fm, "owner", "null", "!!null")
	}
	setScalar(fm, "schema_version", "3", "!!int")
}

// v3 -> v4: rename labels to tags.
func migrateV3(fm *yaml.Node) {
	renameKey(fm, "labels", "tags")
	setScalar(fm, "schema_version", "4", "!!int")
}

// v6 -> v7: rename status value todo to open.
func migrateV6(fm *yaml.Node) {
	if st := lookup(fm, "status"); st != nil && st.Value == "todo" {
		st.Value = "open"
		st.Tag = "!!str"
	}
	setScalar(fm, "schema_version", "7", "!!int")
}

// v7 -> v8: drop updated_at; derive started_at/completed_at from it keyed on
// the current status.
func migrateV7(fm *yaml.Node) {
	updated := lookup(fm, "updated_at")
	status := ""
	if st := lookup(fm, "status"); st != nil {
		status = st.Value
	}
	if updated != nil {
		switch status {
		case "doing":
			if lookup(fm, "started_at") == nil {
				setScalar(fm, "started_at", updated.Value, updated.Tag)
			}
		case "done", "skip":
			if lookup(fm, "started_at") == nil {
				setScalar(fm, "started_at", updated.Value, updated.Tag)
			}
			if lookup(fm, "completed_at") == nil {
				setScalar(fm, "completed_at", updated.Value, updated.Tag)
			}
		}
	}
	deleteKey(fm, "updated_at")
	setScalar(fm, "schema_version", "8", "!!int")
}

// bumpTo returns a version-bump-only step (schema unchanged on disk).
func bumpTo(target int) step {
	return func(fm *yaml.Node) {
		setScalar(fm, "schema_version", strconv.Itoa(target), "!!int")
	}
}

// --- yaml.Node mapping helpers ---

// lookup returns the value node for key in a mapping node, or nil.
func lookup(fm *yaml.Node, key string) *yaml.Node {
	if fm == nil || fm.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(fm.Content); i += 2 {
		if fm.Content[i].Value == key {
			return fm.Content[i+1]
		}
	}
	return nil
}

func intValue(fm *yaml.Node, key string) (int, bool) {
	n := lookup(fm, key)
	if n == nil {
		return 0, false
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}

// setScalar sets key to a scalar value, appending the pair if absent.
func setScalar(fm *yaml.Node, key, value, tag string) {
	if n := lookup(fm, key); n != nil {
		n.Kind = yaml.ScalarNode
		n.Value = value
		n.Tag = tag
		n.Content = nil
		return
	}
	fm.Content = append(fm.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}

// renameKey renames a mapping key in place, preserving position and value.
func renameKey(fm *yaml.Node, from, to string) {
	if fm == nil || fm.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(fm.Content); i += 2 {
		if fm.Content[i].Value == from {
			fm.Content[i].Value = to
			return
		}
	}
}

// deleteKey removes a key and its value from a mapping node.
func deleteKey(fm *yaml.Node, key string) {
	if fm == nil || fm.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(fm.Content); i += 2 {
		if fm.Content[i].Value == key {
			fm.Content = append(fm.Content[:i], fm.Content[i+2:]...)
			return
		}
	}
}
