package client

import (
	"fmt"
	"net/url"
)

// Filter adds an OData style filter expression, e.g. "gatewayId eq '2'".
func Filter(expression string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("filter=%s", url.QueryEscape(expression)))
	}
}

func ObjectID(objectID string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("objectId=%s", url.QueryEscape(objectID)))
	}
}

func OrderBy(field string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("orderby=%s", url.QueryEscape(field)))
	}
}
