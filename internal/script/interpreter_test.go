/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package script

import "testing"

type fakeAccessor struct {
	keys []string
}

func (f *fakeAccessor) NumVertices() int                 { return len(f.keys) }
func (f *fakeAccessor) Successors(idx int32) []int32      { return []int32{idx + 1} }
func (f *fakeAccessor) Predecessors(idx int32) []int32    { return []int32{idx - 1} }
func (f *fakeAccessor) Column(name string, idx int32) interface{} { return name }
func (f *fakeAccessor) Key(idx int32) string              { return f.keys[idx] }
func (f *fakeAccessor) IndexByKey(key string) (int32, bool) {
	for i, k := range f.keys {
		if k == key {
			return int32(i), true
		}
	}
	return 0, false
}

func TestResolveVertexArgAcceptsNumericIndex(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A", "B"}}
	idx, err := resolveVertexArg(a, float64(1))
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Error("Unexpected index:", idx)
	}
}

func TestResolveVertexArgAcceptsKey(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A", "B"}}
	idx, err := resolveVertexArg(a, "B")
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Error("Unexpected index:", idx)
	}
}

func TestResolveVertexArgRejectsUnknownKey(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A"}}
	if _, err := resolveVertexArg(a, "ghost"); err == nil {
		t.Error("Expected an error for an unknown key")
	}
}

func TestResolveVertexArgRejectsWrongType(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A"}}
	if _, err := resolveVertexArg(a, true); err == nil {
		t.Error("Expected an error for a non-index, non-key argument")
	}
}

func TestToFloatAcceptsIntegralTypes(t *testing.T) {
	cases := []interface{}{float64(3), int(3), int32(3), int64(3)}
	for _, c := range cases {
		v, ok := toFloat(c)
		if !ok || v != 3 {
			t.Errorf("toFloat(%v) = (%v, %v)", c, v, ok)
		}
	}
}

func TestToFloatRejectsString(t *testing.T) {
	if _, ok := toFloat("3"); ok {
		t.Error("Expected toFloat to reject a string")
	}
}

func TestToInterfaceSliceConvertsEachElement(t *testing.T) {
	out := toInterfaceSlice([]int32{1, 2, 3})
	if len(out) != 3 || out[1] != float64(2) {
		t.Error("Unexpected output:", out)
	}
}

func TestResultCollectorRunStoresValueByResolvedIndex(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A", "B"}}
	c := &resultCollector{accessor: a, values: make(map[int32]float64)}

	if _, err := c.Run("", nil, nil, 0, []interface{}{"B", float64(4.5)}); err != nil {
		t.Fatal(err)
	}
	if c.values[1] != 4.5 {
		t.Error("Unexpected stored value:", c.values)
	}
}

func TestResultCollectorRunRejectsWrongArgCount(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A"}}
	c := &resultCollector{accessor: a, values: make(map[int32]float64)}

	if _, err := c.Run("", nil, nil, 0, []interface{}{"A"}); err == nil {
		t.Error("Expected an error for a missing value argument")
	}
}

func TestResultCollectorRunRejectsNonNumericValue(t *testing.T) {
	a := &fakeAccessor{keys: []string{"A"}}
	c := &resultCollector{accessor: a, values: make(map[int32]float64)}

	if _, err := c.Run("", nil, nil, 0, []interface{}{"A", "not-a-number"}); err == nil {
		t.Error("Expected an error for a non-numeric value")
	}
}
