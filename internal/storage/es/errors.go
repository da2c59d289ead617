package es

import (
	"errors"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

func isNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

func isConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

func hasStatus(err error, status int) bool {
	var esErr *types.ElasticsearchError
	if errors.As(err, &esErr) {
		return esErr.Status == status
	}
	return false
}
