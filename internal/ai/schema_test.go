package ai

import (
	"reflect"
	"testing"
)

func TestSchemaJSONSchema(t *testing.T) {
	minimum, maximum := Bounds(0, 10)
	schema := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"response_type": {Type: TypeString, Enum: []string{"ANSWER", "UNCERTAIN"}},
			"score":         {Type: TypeNumber, Minimum: minimum, Maximum: maximum},
			"name":          {Type: TypeString, Nullable: true},
			"tags":          {Type: TypeArray, Items: &Schema{Type: TypeString}},
		},
		Required: []string{"response_type"},
	}

	got := schema.JSONSchema()

	if got["type"] != "object" {
		t.Fatalf("unexpected type: %v", got["type"])
	}

	props, ok := got["properties"].(map[string]any)
	if !ok || len(props) != 4 {
		t.Fatalf("unexpected properties: %#v", got["properties"])
	}

	score := props["score"].(map[string]any)
	if score["minimum"] != 0.0 || score["maximum"] != 10.0 {
		t.Fatalf("unexpected score bounds: %#v", score)
	}

	name := props["name"].(map[string]any)
	if !reflect.DeepEqual(name["type"], []string{"string", "null"}) {
		t.Fatalf("expected nullable type, got %#v", name["type"])
	}

	tags := props["tags"].(map[string]any)
	if items := tags["items"].(map[string]any); items["type"] != "string" {
		t.Fatalf("unexpected items: %#v", items)
	}

	if !reflect.DeepEqual(got["required"], []string{"response_type"}) {
		t.Fatalf("unexpected required: %#v", got["required"])
	}

	var nilSchema *Schema
	if nilSchema.JSONSchema() != nil {
		t.Fatal("expected nil map for nil schema")
	}
}
