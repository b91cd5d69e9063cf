package api

import (
	"encoding/json"
	"log/slog"

	"github.com/jomfood/jomdeals/internal/model"
)

// rawPage is the items/pagination pair every envelope shape eventually
// unwraps to. Items stay raw until the caller knows the item type.
type rawPage struct {
	Items      json.RawMessage   `json:"items"`
	Pagination *model.Pagination `json:"pagination"`
}

// The backend has been observed answering in four envelope shapes. Each
// matcher is a pure function; the first non-nil match wins.
var pageShapes = []func([]byte) (*rawPage, bool){
	matchDoubleWrapped, // {"data":{"data":{"items":...,"pagination":...}}}
	matchWrapped,       // {"data":{"items":...,"pagination":...}}
	matchDataList,      // {"data":[...]}
	matchBareList,      // [...]
}

func matchDoubleWrapped(body []byte) (*rawPage, bool) {
	var env struct {
		Data struct {
			Data *rawPage `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data.Data == nil || env.Data.Data.Items == nil {
		return nil, false
	}
	return env.Data.Data, true
}

func matchWrapped(body []byte) (*rawPage, bool) {
	var env struct {
		Data *rawPage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Data == nil || env.Data.Items == nil {
		return nil, false
	}
	return env.Data, true
}

func matchDataList(body []byte) (*rawPage, bool) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 || env.Data[0] != '[' {
		return nil, false
	}
	return &rawPage{Items: env.Data}, true
}

func matchBareList(body []byte) (*rawPage, bool) {
	trimmed := json.RawMessage(body)
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return &rawPage{Items: trimmed}, true
}

// decodePage normalizes a 200 response body into a typed page, trying each
// known envelope shape in priority order. A malformed-but-200 body must
// not crash the collection, so unrecognized shapes degrade to an empty
// page and the fallback is logged.
func decodePage[T any](body []byte, logger *slog.Logger, endpoint string) model.Page[T] {
	for _, match := range pageShapes {
		raw, ok := match(body)
		if !ok {
			continue
		}
		var items []T
		if len(raw.Items) > 0 {
			if err := json.Unmarshal(raw.Items, &items); err != nil {
				logger.Warn("Page items failed to decode, falling back to empty page",
					"endpoint", endpoint,
					"error", err)
				return model.Page[T]{}
			}
		}
		return model.Page[T]{Items: items, Pagination: raw.Pagination}
	}

	logger.Warn("Unrecognized response shape, falling back to empty page",
		"endpoint", endpoint)
	return model.Page[T]{}
}

// decodeEntity unwraps a single mutated entity from the same envelope
// family: {"data":{"data":{...}}}, {"data":{...}}, or the bare object.
func decodeEntity[T any](body []byte) (*T, error) {
	var doubleWrapped struct {
		Data struct {
			Data *T `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &doubleWrapped); err == nil && doubleWrapped.Data.Data != nil {
		return doubleWrapped.Data.Data, nil
	}

	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var entity T
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}
