// Package jsonpatch produces RFC 6902 patches between two JSON documents.
package jsonpatch

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Op is one RFC 6902 operation. Value is omitted for removals.
type Op struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func (o Op) MarshalJSON() ([]byte, error) {
	if o.Op == "remove" {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	type plain Op
	return json.Marshal(plain(o))
}

var emptyPatch = json.RawMessage("[]")

// Diff computes the patch that transforms a into b. Both values must come from
// decoding JSON into any. Path is "" for the root document.
func Diff(a, b any, path string) []Op {
	fwd, _ := DiffBoth(a, b, path)
	return fwd
}

// DiffBoth computes the forward (a→b) and backward (b→a) patches in a single traversal.
func DiffBoth(a, b any, path string) (fwd, bwd []Op) {
	if a == nil && b == nil {
		return nil, nil
	}
	if a == nil || b == nil {
		return []Op{replaceOp(path, b)}, []Op{replaceOp(path, a)}
	}

	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]any)
	bArr, bIsArr := b.([]any)
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []Op{replaceOp(path, b)}, []Op{replaceOp(path, a)}
	}
	return nil, nil
}

// keys are visited in sorted order so identical inputs always give identical patches
func diffObjects(a, b map[string]any, path string) (fwd, bwd []Op) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			childPath := path + "/" + escapeKey(k)
			fwd = append(fwd, removeOp(childPath))
			bwd = append(bwd, addOp(childPath, a[k]))
		}
	}

	for _, k := range sortedKeys(b) {
		childPath := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, addOp(childPath, b[k]))
			bwd = append(bwd, removeOp(childPath))
			continue
		}
		subFwd, subBwd := DiffBoth(av, b[k], childPath)
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}
	return fwd, bwd
}

func diffArrays(a, b []any, path string) (fwd, bwd []Op) {
	minLen := min(len(a), len(b))

	for i := 0; i < minLen; i++ {
		subFwd, subBwd := DiffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	// a has extra elements: forward removes (descending), backward adds (ascending)
	for i := len(a) - 1; i >= minLen; i-- {
		fwd = append(fwd, removeOp(path+"/"+strconv.Itoa(i)))
	}
	for i := minLen; i < len(a); i++ {
		bwd = append(bwd, addOp(path+"/"+strconv.Itoa(i), a[i]))
	}

	// b has extra elements: forward adds (ascending), backward removes (descending)
	for i := minLen; i < len(b); i++ {
		fwd = append(fwd, addOp(path+"/"+strconv.Itoa(i), b[i]))
	}
	for i := len(b) - 1; i >= minLen; i-- {
		bwd = append(bwd, removeOp(path+"/"+strconv.Itoa(i)))
	}
	return fwd, bwd
}

// Between marshals both values and returns the forward and backward patches as JSON.
// Numbers are compared by their literal text so decimal amounts never go through float64.
func Between(before, after any) (fwd, bwd json.RawMessage, err error) {
	a, err := decode(before)
	if err != nil {
		return nil, nil, err
	}
	b, err := decode(after)
	if err != nil {
		return nil, nil, err
	}
	f, r := DiffBoth(a, b, "")
	if fwd, err = Marshal(f); err != nil {
		return nil, nil, err
	}
	if bwd, err = Marshal(r); err != nil {
		return nil, nil, err
	}
	return fwd, bwd, nil
}

// Marshal encodes a patch; an empty patch encodes as [].
func Marshal(ops []Op) (json.RawMessage, error) {
	if len(ops) == 0 {
		return emptyPatch, nil
	}
	return json.Marshal(ops)
}

func decode(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func replaceOp(path string, value any) Op {
	return Op{Op: "replace", Path: path, Value: value}
}

func addOp(path string, value any) Op {
	return Op{Op: "add", Path: path, Value: value}
}

func removeOp(path string) Op {
	return Op{Op: "remove", Path: path}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}
