// Package jsondecode walks provider responses by key and index without
// panicking, carrying the JSON path of the first failure.
package jsondecode

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/llmchat/internal/errors"
)

// RootPath is the path of the document root
const RootPath = "$"

// DecodeError reports where a lookup failed, what was wrong and the JSON
// found at that point, formatted as "(<path>) <reason> <compact json>".
type DecodeError struct {
	Path   string
	Reason string
	JSON   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("(%s) %s %s", e.Path, e.Reason, e.JSON)
}

// Is lets decode failures match errors.ErrInvalidResponse
func (e *DecodeError) Is(target error) bool {
	return target == apierrors.ErrInvalidResponse
}

// Value is a position in a parsed document. Once a lookup fails, every
// further lookup returns the same failed Value.
type Value struct {
	res  gjson.Result
	path string
	err  *DecodeError
}

// Parse validates data and returns its root Value.
func Parse(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, apierrors.NewParseError("invalid JSON document", RootPath)
	}
	return Value{res: gjson.ParseBytes(data), path: RootPath}, nil
}

// MustParse is Parse for literals known to be valid, mostly in tests.
func MustParse(doc string) Value {
	v, err := Parse([]byte(doc))
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) fail(reason string) Value {
	return Value{
		res:  v.res,
		path: v.path,
		err:  &DecodeError{Path: v.path, Reason: reason, JSON: compact(v.res)},
	}
}

// Key descends into an object member.
func (v Value) Key(name string) Value {
	if v.err != nil {
		return v
	}
	if !v.res.IsObject() {
		return v.fail("Not an object")
	}

	var found gjson.Result
	ok := false
	v.res.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found, ok = value, true
			return false
		}
		return true
	})
	if !ok {
		return v.fail(fmt.Sprintf("Key %s not found", name))
	}
	return Value{res: found, path: v.path + "." + name}
}

// Index descends into an array element.
func (v Value) Index(i int) Value {
	if v.err != nil {
		return v
	}
	if !v.res.IsArray() {
		return v.fail("Is not an array")
	}
	items := v.res.Array()
	if i < 0 || i >= len(items) {
		return v.fail(fmt.Sprintf("Trying to access index %d, but array size is %d", i, len(items)))
	}
	return Value{res: items[i], path: v.path + "[" + strconv.Itoa(i) + "]"}
}

// Has reports whether the value is an object with the given member.
func (v Value) Has(name string) bool {
	return v.Key(name).err == nil
}

// Text returns the value as a string, failing for non-string JSON.
func (v Value) Text() (string, error) {
	if v.err != nil {
		return "", v.err
	}
	if v.res.Type != gjson.String {
		return "", v.fail("Is not a string").err
	}
	return v.res.String(), nil
}

// Array returns the elements of an array value.
func (v Value) Array() ([]Value, error) {
	if v.err != nil {
		return nil, v.err
	}
	if !v.res.IsArray() {
		return nil, v.fail("Is not an array").err
	}
	items := v.res.Array()
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Value{res: item, path: v.path + "[" + strconv.Itoa(i) + "]"}
	}
	return out, nil
}

// Err returns the first failure along the lookup chain, or nil.
func (v Value) Err() error {
	if v.err == nil {
		return nil
	}
	return v.err
}

// Path returns the JSON path of the value.
func (v Value) Path() string {
	return v.path
}

// Raw returns the compact JSON text of the value.
func (v Value) Raw() string {
	return compact(v.res)
}

func compact(res gjson.Result) string {
	if res.Raw == "" {
		return "null"
	}
	return res.Get("@ugly").Raw
}
