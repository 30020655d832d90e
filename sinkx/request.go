package sinkx

import "time"

// BulkRequest is an ordered batch of actions submitted in one round trip.
type BulkRequest struct {
	ExecutionID int64
	Actions     []WriteAction

	sizeBytes int64
}

func NewBulkRequest(executionID int64, actions []WriteAction) *BulkRequest {
	r := &BulkRequest{ExecutionID: executionID, Actions: actions}
	for _, a := range actions {
		r.sizeBytes += int64(a.EstimatedSizeInBytes())
	}
	return r
}

func (r *BulkRequest) NumberOfActions() int {
	return len(r.Actions)
}

func (r *BulkRequest) EstimatedSizeInBytes() int64 {
	return r.sizeBytes
}

// ItemFailure is the reason the store gave for rejecting one action.
type ItemFailure struct {
	Type   string
	Reason string
}

func (f *ItemFailure) Error() string {
	if f.Reason == "" {
		return f.Type
	}
	return f.Type + ": " + f.Reason
}

type ItemResult struct {
	Status int
	Err    *ItemFailure
}

func (r ItemResult) Failed() bool {
	return r.Err != nil
}

// BulkResponse holds one result per action, in request order.
type BulkResponse struct {
	Items []ItemResult
	Took  time.Duration
}

func (r *BulkResponse) HasFailures() bool {
	for _, item := range r.Items {
		if item.Failed() {
			return true
		}
	}
	return false
}
