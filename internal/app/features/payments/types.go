// internal/app/features/payments/types.go
package payments

import (
	"github.com/dalemusser/eduledger/internal/app/system/paging"
	"github.com/dalemusser/eduledger/internal/domain/models"
)

type createRequest struct {
	Student     string `json:"student" validate:"required,objectid" label:"Student"`
	Group       string `json:"group" validate:"required,objectid" label:"Group"`
	Amount      int64  `json:"amount" validate:"required,gt=0" label:"Amount"`
	Type        string `json:"type" validate:"omitempty,paymenttype" label:"Payment type"`
	PaymentDate string `json:"paymentDate" validate:"omitempty,ymd" label:"Payment date"`
}

// updateRequest fields are optional; at least one must be present.
type updateRequest struct {
	Amount      *int64  `json:"amount" validate:"omitempty,gt=0" label:"Amount"`
	Type        *string `json:"type" validate:"omitempty,paymenttype" label:"Payment type"`
	PaymentDate *string `json:"paymentDate" validate:"omitempty,ymd" label:"Payment date"`
}

type paymentResponse struct {
	Message string         `json:"message"`
	Payment models.Payment `json:"payment"`
	NewDebt int64          `json:"newDebt"`
}

type deleteResponse struct {
	Message string `json:"message"`
	NewDebt int64  `json:"newDebt"`
}

type listItem struct {
	models.Payment
	StudentName string `json:"student_name"`
	GroupName   string `json:"group_name"`
}

type listResponse struct {
	paging.Page[listItem]
	Total int64 `json:"pageTotal"`
}
