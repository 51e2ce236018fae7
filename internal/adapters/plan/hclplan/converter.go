package hclplan

import (
	"fmt"
	"math"
	"math/big"

	jsoniter "github.com/json-iterator/go"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// toGo converts an evaluated value into plain Go values: strings, bools,
// int64 for whole numbers, float64 otherwise, and maps and slices of those.
func toGo(val cty.Value) (any, error) {
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value of type %s is not known", val.Type().FriendlyName())
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.Equals(cty.Number):
		return number(val.AsBigFloat()), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := toGo(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = gv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := toGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	}
	return viaJSON(val)
}

func number(bf *big.Float) any {
	if i64, acc := bf.Int64(); acc == big.Exact {
		return i64
	}
	f64, _ := bf.Float64()
	if !math.IsInf(f64, 0) {
		return f64
	}
	return bf.Text('g', -1)
}

// viaJSON handles the remaining types (capsules aside) through cty's JSON
// encoding.
func viaJSON(val cty.Value) (any, error) {
	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", val.Type().FriendlyName(), err)
	}
	var out any
	if err := jsonAPI.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", val.Type().FriendlyName(), err)
	}
	return out, nil
}
