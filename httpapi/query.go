package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
)

func parseFloatQuery(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("missing %q query parameter", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q query parameter: %w", key, err)
	}
	return v, nil
}
