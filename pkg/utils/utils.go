package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"slices"

	"github.com/gowebpki/jcs"
	"github.com/modern-go/reflect2"
)

func OptionalDefaulted[T any](def T, args ...T) T {
	var _nil T
	for _, e := range args {
		if !reflect.DeepEqual(e, _nil) {
			return e
		}
	}
	return def
}

// HashData provides a stable hex encoded sha256 hash for
// the given data. Structured data is serialized as
// canonical JSON (RFC 8785) before hashing, so the
// hash does not depend on field or map ordering.
func HashData(d interface{}) (string, error) {
	if reflect2.IsNil(d) {
		return "", nil
	}
	var err error
	var data []byte
	switch b := d.(type) {
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		data, err = json.Marshal(d)
		if err != nil {
			return "", err
		}
		data, err = jcs.Transform(data)
		if err != nil {
			return "", err
		}
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// Cycle returns the cycle closed by id, if id is already
// on the given stack.
func Cycle[T comparable](id T, stack ...T) []T {
	i := slices.Index(stack, id)
	if i < 0 {
		return nil
	}
	return append(slices.Clone(stack[i:]), id)
}
