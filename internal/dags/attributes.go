package dags

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// FromImage converts a DynamoDB stream image into plain values suitable for JSON
func FromImage(image map[string]events.DynamoDBAttributeValue) map[string]any {
	out := make(map[string]any, len(image))
	for k, v := range image {
		out[k] = fromAttribute(v)
	}
	return out
}

func fromAttribute(v events.DynamoDBAttributeValue) any {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String()
	case events.DataTypeNumber:
		return json.Number(v.Number())
	case events.DataTypeBoolean:
		return v.Boolean()
	case events.DataTypeNull:
		return nil
	case events.DataTypeBinary:
		return v.Binary()
	case events.DataTypeMap:
		return FromImage(v.Map())
	case events.DataTypeList:
		items := make([]any, 0, len(v.List()))
		for _, item := range v.List() {
			items = append(items, fromAttribute(item))
		}
		return items
	case events.DataTypeStringSet:
		return v.StringSet()
	case events.DataTypeNumberSet:
		numbers := make([]json.Number, 0, len(v.NumberSet()))
		for _, n := range v.NumberSet() {
			numbers = append(numbers, json.Number(n))
		}
		return numbers
	case events.DataTypeBinarySet:
		return v.BinarySet()
	default:
		return nil
	}
}
