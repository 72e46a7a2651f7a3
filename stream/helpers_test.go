package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestGetStringAttr_ExistingString(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id": events.NewStringAttribute("master#{ABC}"),
	}

	result := getStringAttr(image, "id")
	if result != "master#{ABC}" {
		t.Errorf("expected 'master#{ABC}', got %q", result)
	}
}

func TestGetStringAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"other": events.NewStringAttribute("value"),
	}

	if result := getStringAttr(image, "id"); result != "" {
		t.Errorf("expected empty string for missing key, got %q", result)
	}
}

func TestGetStringAttr_NilImage(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue

	if result := getStringAttr(image, "id"); result != "" {
		t.Errorf("expected empty string for nil image, got %q", result)
	}
}

func TestGetStringAttr_WrongType(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id": events.NewNumberAttribute("42"),
	}

	if result := getStringAttr(image, "id"); result != "" {
		t.Errorf("expected empty string for number attribute, got %q", result)
	}
}

func TestGetNumberAttr_ExistingNumber(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"ttl": events.NewNumberAttribute("1700000000"),
	}

	if result := getNumberAttr(image, "ttl"); result != 1700000000 {
		t.Errorf("expected 1700000000, got %d", result)
	}
}

func TestGetNumberAttr_MissingKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{}

	if result := getNumberAttr(image, "ttl"); result != 0 {
		t.Errorf("expected 0 for missing key, got %d", result)
	}
}

func TestGetNumberAttr_StringValue(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"ttl": events.NewStringAttribute("123"),
	}

	if result := getNumberAttr(image, "ttl"); result != 0 {
		t.Errorf("expected 0 for string attribute, got %d", result)
	}
}

func TestGetNumberAttr_NotANumber(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"ttl": events.NewNumberAttribute("1.5e3x"),
	}

	if result := getNumberAttr(image, "ttl"); result != 0 {
		t.Errorf("expected 0 for unparsable number, got %d", result)
	}
}

func TestConvertValue_Nested(t *testing.T) {
	v := events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
		"en": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewNumberAttribute("1"),
			events.NewNumberAttribute("3"),
		}),
	})

	m, ok := convertValue(v).(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("expected map, got %T", convertValue(v))
	}
	l, ok := m.Value["en"].(*types.AttributeValueMemberL)
	if !ok || len(l.Value) != 2 {
		t.Fatalf("expected list of two, got %#v", m.Value["en"])
	}
	if n, ok := l.Value[1].(*types.AttributeValueMemberN); !ok || n.Value != "3" {
		t.Errorf("expected second element 3, got %#v", l.Value[1])
	}
}

func TestConvertValue_Scalars(t *testing.T) {
	if v, ok := convertValue(events.NewBooleanAttribute(true)).(*types.AttributeValueMemberBOOL); !ok || !v.Value {
		t.Error("expected BOOL true")
	}
	if _, ok := convertValue(events.NewNullAttribute()).(*types.AttributeValueMemberNULL); !ok {
		t.Error("expected NULL")
	}
	if v, ok := convertValue(events.NewBinaryAttribute([]byte{1, 2})).(*types.AttributeValueMemberB); !ok || len(v.Value) != 2 {
		t.Error("expected two byte binary")
	}
	if v, ok := convertValue(events.NewStringSetAttribute([]string{"a", "b"})).(*types.AttributeValueMemberSS); !ok || len(v.Value) != 2 {
		t.Error("expected string set")
	}
	if v, ok := convertValue(events.NewNumberSetAttribute([]string{"1"})).(*types.AttributeValueMemberNS); !ok || len(v.Value) != 1 {
		t.Error("expected number set")
	}
	if v, ok := convertValue(events.NewBinarySetAttribute([][]byte{{1}})).(*types.AttributeValueMemberBS); !ok || len(v.Value) != 1 {
		t.Error("expected binary set")
	}
}
