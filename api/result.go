/*
 * GraphEngine
 *
 * Copyright 2024 The GraphEngine Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package api

import (
	"fmt"
	"strconv"

	"github.com/arangoanalytics/graphengine/internal/algo"
)

// encodeResult turns a job's raw result (typically *algo.Result, or
// nil while the job is still running) into a JSON-ready value. Map
// keys that are not themselves strings (vertex indices, attribute
// values of arbitrary type) are stringified, since encoding/json
// rejects non-string map keys.
func encodeResult(v interface{}) interface{} {
	res, ok := v.(*algo.Result)
	if !ok || res == nil {
		return nil
	}

	switch {
	case res.IntVector != nil:
		return map[string]interface{}{"int_vector": res.IntVector}
	case res.FloatVector != nil:
		return map[string]interface{}{"float_vector": res.FloatVector}
	case res.SetVector != nil:
		return map[string]interface{}{"set_vector": res.SetVector}
	case res.StringVector != nil:
		return map[string]interface{}{"string_vector": res.StringVector}
	case res.Histograms != nil:
		out := make(map[string]map[string]int64, len(res.Histograms))
		for comp, hist := range res.Histograms {
			h := make(map[string]int64, len(hist))
			for val, count := range hist {
				h[fmt.Sprint(val)] = count
			}
			out[strconv.FormatInt(int64(comp), 10)] = h
		}
		return map[string]interface{}{"histograms": out}
	case res.Scalars != nil:
		return map[string]interface{}{"scalars": res.Scalars}
	}
	return nil
}
