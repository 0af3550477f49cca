// Package analysis reads the cached analysis documents an external worker
// writes into DynamoDB, and carries the item codec that converts the
// store's tagged wire format into plain Go values.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DecodeItem converts a DynamoDB item into a plain map, applying
// DecodeValue to every attribute.
func DecodeItem(item map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(item))
	for key, av := range item {
		v, err := DecodeValue(av)
		if err != nil {
			return nil, fmt.Errorf("analysis: attribute %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// DecodeValue converts one tagged wire value into a native Go value,
// recursively:
//
//	S → string        N → int64 or float64     B → []byte
//	BOOL → bool       NULL → nil
//	SS → []string     NS → []any               BS → [][]byte
//	M → map[string]any (recursive)             L → []any (recursive)
//
// An unrecognized tag means the encoding is corrupt and is a hard error,
// never a silent coercion.
func DecodeValue(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return decodeNumber(v.Value)
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberSS:
		return append([]string(nil), v.Value...), nil
	case *types.AttributeValueMemberNS:
		nums := make([]any, len(v.Value))
		for i, s := range v.Value {
			n, err := decodeNumber(s)
			if err != nil {
				return nil, err
			}
			nums[i] = n
		}
		return nums, nil
	case *types.AttributeValueMemberBS:
		out := make([][]byte, len(v.Value))
		for i, b := range v.Value {
			out[i] = append([]byte(nil), b...)
		}
		return out, nil
	case *types.AttributeValueMemberM:
		return DecodeItem(v.Value)
	case *types.AttributeValueMemberL:
		list := make([]any, len(v.Value))
		for i, item := range v.Value {
			decoded, err := DecodeValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = decoded
		}
		return list, nil
	case nil:
		return nil, fmt.Errorf("nil attribute value")
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", av)
	}
}

// decodeNumber parses a DynamoDB number. Lexically integral strings (no
// fractional or exponent part) become int64; everything else becomes
// float64 with the same value. Integers too large for int64 fall back to
// float64.
func decodeNumber(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed number %q: %w", s, err)
	}
	return f, nil
}
