package httpx

import (
	"net/http"

	"github.com/clinia/bulksink/errorx"
)

const (
	HealthyHeaderKey = "X-Bulksink-Healthy"
	HealthyValue     = "true"
	UnhealthyValue   = "false"
)

func SetHealthyHeader(h http.Header) error {
	if h == nil {
		return errorx.InternalErrorf("header can not be nil")
	}
	h.Set(HealthyHeaderKey, HealthyValue)
	return nil
}

func SetUnhealthyHeader(h http.Header) error {
	if h == nil {
		return errorx.InternalErrorf("header can not be nil")
	}
	h.Set(HealthyHeaderKey, UnhealthyValue)
	return nil
}
