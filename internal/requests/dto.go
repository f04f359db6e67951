package requests

import (
	"time"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/pkg/enums"
)

// ItemInput is one item row of the request form. Rows with a blank name are
// ignored.
type ItemInput struct {
	Name string `json:"name" yaml:"name"`
	Qty  int    `json:"qty" yaml:"qty"`
}

type Intent struct {
	Type  string      `json:"type" yaml:"type" validate:"required"`
	Items []ItemInput `json:"items" yaml:"items"`
}

// Row is one of the caller's requests.
type Row struct {
	ID      string              `json:"id" yaml:"id"`
	Date    time.Time           `json:"date" yaml:"date"`
	Type    string              `json:"type" yaml:"type"`
	Items   []records.Item      `json:"items" yaml:"items"`
	Summary string              `json:"summary" yaml:"summary"`
	Status  enums.RequestStatus `json:"status" yaml:"status"`
}

type Model struct {
	Rows []Row `json:"rows" yaml:"rows"`
}

// ReviewRow is a request as seen by an admin reviewer.
type ReviewRow struct {
	Row           `yaml:",inline"`
	Requester     string `json:"requester" yaml:"requester"`
	EmployeeEmail string `json:"employeeEmail" yaml:"employeeEmail"`
}

type ReviewModel struct {
	Rows []ReviewRow `json:"rows" yaml:"rows"`
}
