package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

// queryAll pages through a listing endpoint using top and skip until the
// service returns a page that is shorter than the configured page size.
func queryAll[T any](ctx context.Context, c dmClient, endpoint string, parameters []RequestDecoratorFunc, callback func(t T)) (count int, err error) {

	logger := logging.GetFromContext(ctx)

	limit := c.pageSize
	offset := 0

	params := make([]string, 0, 5)
	for _, rdf := range parameters {
		params = rdf(params)
	}

	extraParams := ""
	if len(params) > 0 {
		extraParams = "&" + strings.Join(params, "&")
	}

	for {
		url := fmt.Sprintf("%s?top=%d&skip=%d%s", endpoint, limit, offset, extraParams)
		offset += limit

		logger.Debug("calling " + url)

		response, responseBody, callErr := c.callService(ctx, http.MethodGet, url)
		if callErr != nil {
			err = callErr
			return
		}

		if response.StatusCode != http.StatusOK {
			contentType := response.Header.Get("Content-Type")
			err = errors.NewErrorFromResponse(response.StatusCode, contentType, responseBody)
			return
		}

		// every page decodes into a fresh slice, entities already handed to
		// the callback must not share memory with the next page
		result := make([]T, 0, limit)

		err = json.Unmarshal(responseBody, &result)
		if err != nil {
			err = errors.NewBadResponseError(fmt.Sprintf("failed to unmarshal response: %s", err.Error()))
			return
		}

		for _, e := range result {
			callback(e)
		}

		batchSize := len(result)
		count += batchSize

		if batchSize < limit {
			break
		}
	}

	return
}
