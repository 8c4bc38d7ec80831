package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownStatus is returned when a code or key matches none of the known statuses.
var ErrUnknownStatus = errors.New("work order status is unknown")

// WorkOrderStatus is a closed enumeration. Only the package-level values are valid.
type WorkOrderStatus struct {
	code         string
	key          string
	friendlyName string
	sortBy       int
}

var (
	StatusNone       = WorkOrderStatus{}
	StatusDraft      = WorkOrderStatus{code: "DFT", key: "Draft", friendlyName: "Draft", sortBy: 0}
	StatusAssigned   = WorkOrderStatus{code: "ASD", key: "Assigned", friendlyName: "Assigned", sortBy: 1}
	StatusInProgress = WorkOrderStatus{code: "IPG", key: "InProgress", friendlyName: "In Progress", sortBy: 2}
	StatusComplete   = WorkOrderStatus{code: "CMP", key: "Complete", friendlyName: "Complete", sortBy: 3}
	StatusCancelled  = WorkOrderStatus{code: "CXL", key: "Cancelled", friendlyName: "Cancelled", sortBy: 4}
)

var allStatuses = []WorkOrderStatus{StatusDraft, StatusAssigned, StatusInProgress, StatusComplete, StatusCancelled}

// AllStatuses returns every real status in sort order.
func AllStatuses() []WorkOrderStatus {
	list := append([]WorkOrderStatus(nil), allStatuses...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].sortBy < list[j].sortBy })
	return list
}

// StatusFromCode resolves a status by its short code. The empty code yields StatusNone.
func StatusFromCode(code string) (WorkOrderStatus, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return StatusNone, nil
	}
	for _, s := range allStatuses {
		if strings.EqualFold(s.code, code) {
			return s, nil
		}
	}
	return StatusNone, fmt.Errorf("%w: code %q", ErrUnknownStatus, code)
}

// StatusFromKey resolves a status by its machine key.
func StatusFromKey(key string) (WorkOrderStatus, error) {
	key = strings.TrimSpace(key)
	for _, s := range allStatuses {
		if strings.EqualFold(s.key, key) {
			return s, nil
		}
	}
	return StatusNone, fmt.Errorf("%w: key %q", ErrUnknownStatus, key)
}

func (s WorkOrderStatus) Code() string         { return s.code }
func (s WorkOrderStatus) Key() string          { return s.key }
func (s WorkOrderStatus) FriendlyName() string { return s.friendlyName }
func (s WorkOrderStatus) SortBy() int          { return s.sortBy }

// IsNone reports whether s is the empty sentinel.
func (s WorkOrderStatus) IsNone() bool { return s.code == "" }

// Equals compares statuses by code.
func (s WorkOrderStatus) Equals(other WorkOrderStatus) bool { return s.code == other.code }

func (s WorkOrderStatus) String() string {
	if s.IsNone() {
		return "None"
	}
	return s.friendlyName
}

// MarshalJSON encodes the status as its code.
func (s WorkOrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.code)
}

// UnmarshalJSON accepts a status code and rejects anything outside the closed set.
func (s *WorkOrderStatus) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	status, err := StatusFromCode(code)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
