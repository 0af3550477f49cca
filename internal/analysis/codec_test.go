package analysis

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
)

func TestDecodeValue_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   types.AttributeValue
		want any
	}{
		{"string", &types.AttributeValueMemberS{Value: "hello"}, "hello"},
		{"bool true", &types.AttributeValueMemberBOOL{Value: true}, true},
		{"bool false", &types.AttributeValueMemberBOOL{Value: false}, false},
		{"null", &types.AttributeValueMemberNULL{Value: true}, nil},
		{"binary", &types.AttributeValueMemberB{Value: []byte{0x1, 0x2}}, []byte{0x1, 0x2}},
		{"string set", &types.AttributeValueMemberSS{Value: []string{"a/b", "c/d"}}, []string{"a/b", "c/d"}},
		{"binary set", &types.AttributeValueMemberBS{Value: [][]byte{{0x1}}}, [][]byte{{0x1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeValue_Numbers(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		// lexically integral → int64
		{"0", int64(0)},
		{"42", int64(42)},
		{"-17", int64(-17)},
		// fractional or exponent part → float64
		{"3.5", 3.5},
		{"-0.25", -0.25},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		// integral but beyond int64 → float64 fallback
		{"92233720368547758080", 92233720368547758080.0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DecodeValue(&types.AttributeValueMemberN{Value: tt.in})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeValue_MalformedNumber(t *testing.T) {
	_, err := DecodeValue(&types.AttributeValueMemberN{Value: "not-a-number"})
	assert.Error(t, err)
}

func TestDecodeValue_NumberSet(t *testing.T) {
	got, err := DecodeValue(&types.AttributeValueMemberNS{Value: []string{"1", "2.5"}})
	assert.NoError(t, err)
	assert.Equal(t, []any{int64(1), 2.5}, got)
}

func TestDecodeValue_NestedMapAndList(t *testing.T) {
	in := &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"repos": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"facebook/react": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"description": &types.AttributeValueMemberS{Value: "A JS library"},
				"stars":       &types.AttributeValueMemberN{Value: "210000"},
				"isPrivate":   &types.AttributeValueMemberBOOL{Value: false},
			}},
		}},
		"selectedRepos": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "facebook/react"},
		}},
		"coverage": &types.AttributeValueMemberN{Value: "87.5"},
	}}

	got, err := DecodeValue(in)
	assert.NoError(t, err)

	doc := got.(map[string]any)
	repos := doc["repos"].(map[string]any)
	react := repos["facebook/react"].(map[string]any)
	assert.Equal(t, "A JS library", react["description"])
	assert.Equal(t, int64(210000), react["stars"])
	assert.Equal(t, false, react["isPrivate"])
	assert.Equal(t, []any{"facebook/react"}, doc["selectedRepos"])
	assert.Equal(t, 87.5, doc["coverage"])
}

func TestDecodeValue_UnknownTagIsFatal(t *testing.T) {
	_, err := DecodeValue(nil)
	assert.Error(t, err)

	// An item with one bad attribute fails as a whole; corrupt encodings
	// are never partially decoded.
	_, err = DecodeItem(map[string]types.AttributeValue{
		"good": &types.AttributeValueMemberS{Value: "x"},
		"bad":  nil,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
