package cursor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/noproto-go/noproto/internal/schema"
)

// ToJSON renders this cursor's value (and everything reachable beneath
// it) as JSON text. This is the buffer-value codec (spec.md §6.1
// "to_json"), distinct from internal/schema/jsonschema's schema-surface
// codec.
func (c *Cursor) ToJSON() ([]byte, error) {
	v, err := c.toAny()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (c *Cursor) toAny() (any, error) {
	n := c.node()
	switch n.Kind {
	case schema.KindStruct:
		out := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			child, err := c.Select([]string{f.Name}, false)
			if err == ErrNotPresent {
				continue
			}
			if err != nil {
				return nil, err
			}
			v, err := child.toAny()
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil

	case schema.KindTuple:
		out := make([]any, len(n.Elements))
		for i := range n.Elements {
			child, err := c.Select([]string{strconv.Itoa(i)}, false)
			if err == ErrNotPresent {
				out[i] = nil
				continue
			}
			if err != nil {
				return nil, err
			}
			v, err := child.toAny()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case schema.KindList:
		indices, err := c.ListIndices()
		if err != nil {
			return nil, err
		}
		length := 0
		if n := len(indices); n > 0 {
			length = int(indices[n-1]) + 1
		}
		out := make([]any, length)
		for _, i := range indices {
			child, err := c.Select([]string{strconv.Itoa(int(i))}, false)
			if err == ErrNotPresent {
				continue
			}
			if err != nil {
				return nil, err
			}
			v, err := child.toAny()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case schema.KindMap:
		keys, err := c.MapKeys()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			child, err := c.Select([]string{k}, false)
			if err != nil {
				return nil, err
			}
			v, err := child.toAny()
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case schema.KindUnion:
		variant, ok := c.UnionVariant()
		if !ok {
			return nil, nil
		}
		child, err := c.Select([]string{variant}, false)
		if err != nil {
			return nil, err
		}
		v, err := child.toAny()
		if err != nil {
			return nil, err
		}
		return map[string]any{variant: v}, nil

	default:
		return c.Get()
	}
}

// SetFromJSON decodes data and writes it into this cursor (and
// everything beneath it), allocating storage as needed.
func (c *Cursor) SetFromJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("cursor: invalid JSON: %w", err)
	}
	return c.fromAny(v)
}

func (c *Cursor) fromAny(v any) error {
	n := c.node()
	if v == nil {
		if c.IsContainer() {
			return nil
		}
		return c.Del()
	}

	switch n.Kind {
	case schema.KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("cursor: expected JSON object for struct, got %T", v)
		}
		for _, f := range n.Fields {
			fv, present := obj[f.Name]
			if !present {
				continue
			}
			child, err := c.Select([]string{f.Name}, true)
			if err != nil {
				return err
			}
			if err := child.fromAny(fv); err != nil {
				return err
			}
		}
		return nil

	case schema.KindTuple:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("cursor: expected JSON array for tuple, got %T", v)
		}
		for i, ev := range arr {
			if i >= len(n.Elements) {
				break
			}
			child, err := c.Select([]string{strconv.Itoa(i)}, true)
			if err != nil {
				return err
			}
			if err := child.fromAny(ev); err != nil {
				return err
			}
		}
		return nil

	case schema.KindList:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("cursor: expected JSON array for list, got %T", v)
		}
		for i, ev := range arr {
			child, err := c.Select([]string{strconv.Itoa(i)}, true)
			if err != nil {
				return err
			}
			if err := child.fromAny(ev); err != nil {
				return err
			}
		}
		return nil

	case schema.KindMap:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("cursor: expected JSON object for map, got %T", v)
		}
		for k, ev := range obj {
			child, err := c.Select([]string{k}, true)
			if err != nil {
				return err
			}
			if err := child.fromAny(ev); err != nil {
				return err
			}
		}
		return nil

	case schema.KindUnion:
		obj, ok := v.(map[string]any)
		if !ok || len(obj) != 1 {
			return fmt.Errorf("cursor: union JSON value must be a single-key object")
		}
		for variant, ev := range obj {
			child, err := c.Select([]string{variant}, true)
			if err != nil {
				return err
			}
			return child.fromAny(ev)
		}
		return nil

	default:
		return c.Set(v)
	}
}
