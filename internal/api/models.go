package api

import (
	"encoding/json"
)

// TaskAcceptedResponse is returned with 202 when a job has been submitted.
type TaskAcceptedResponse struct {
	TaskID string `json:"taskId"`
}

// StatusResponse reports whether a job has finished and, once it has,
// its result.
type StatusResponse struct {
	Ready bool            `json:"ready"`
	Value json.RawMessage `json:"value"`
}

// TaskStatusResponse is keyed by raw state name. Which of the optional
// fields are present depends on the state.
type TaskStatusResponse struct {
	State   string           `json:"state"`
	Current *int             `json:"current,omitempty"`
	Total   *int             `json:"total,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *string          `json:"error,omitempty"`
}

// WordResponse is one stored word as exposed by the listing endpoint.
type WordResponse struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Token    string `json:"token"`
}

// WordListResponse is one window of words plus the total word count.
type WordListResponse struct {
	Data  []WordResponse `json:"data"`
	Count int            `json:"count"`
}

// ListWordsQuery holds the parsed query string of GET /words. Start and
// End select the zero-based half-open row range [Start, End).
type ListWordsQuery struct {
	Start     int `validate:"gte=0"`
	End       int `validate:"gtfield=Start"`
	SortField string
	SortOrder string
}
