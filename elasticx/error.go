package elasticx

import (
	"encoding/json"
	"io"

	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

func isElasticError(err error) (*types.ElasticsearchError, bool) {
	eserror, ok := err.(*types.ElasticsearchError)
	if !ok {
		return nil, false
	}

	return eserror, true
}

// IsRetryable reports whether err is a rejection the cluster may accept later.
// Errors that are not elastic errors are network failures and are retryable too.
func IsRetryable(err error) bool {
	eserror, ok := isElasticError(err)
	if !ok {
		return true
	}

	return eserror.Status == 429 || eserror.Status >= 500
}

// withElasticError turns an error response of the low level API into a *types.ElasticsearchError.
func withElasticError(res *esapi.Response) error {
	eserror := types.NewElasticsearchError()
	body, err := io.ReadAll(res.Body)
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, eserror)
	}

	if eserror.Status == 0 {
		eserror.Status = res.StatusCode
	}
	if eserror.ErrorCause.Type == "" {
		eserror.ErrorCause.Type = res.Status()
	}

	return eserror
}
