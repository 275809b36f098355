package models

import "time"

type OfficeType string

const (
	OfficeTypeBranch     OfficeType = "BRANCH"
	OfficeTypeHeadOffice OfficeType = "HEAD OFFICE"
	OfficeTypeLogistic   OfficeType = "LOGISTIC"
)

var OfficeTypes = []OfficeType{OfficeTypeBranch, OfficeTypeHeadOffice, OfficeTypeLogistic}

type ScannerStatus string

const (
	ScannerStatusActive    ScannerStatus = "Active"
	ScannerStatusDefective ScannerStatus = "Defective"
	ScannerStatusForRepair ScannerStatus = "For Repair"
)

var ScannerStatuses = []ScannerStatus{ScannerStatusActive, ScannerStatusDefective, ScannerStatusForRepair}

type ScannerRecord struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	BranchID     *uint         `gorm:"index" json:"branch_id"`
	Branch       *Branch       `json:"branch,omitempty"`
	OfficeType   OfficeType    `gorm:"size:255" json:"office_type"`
	SerialNumber string        `gorm:"size:255" json:"serial_number"`
	Model        string        `gorm:"size:255" json:"model"`
	Status       ScannerStatus `gorm:"size:255" json:"status"`
	Remarks      string        `gorm:"size:255" json:"remarks"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ScannerRecordChanges carries the columns of a partial update. Nil pointers
// are left untouched. ClearBranch unassigns the record from its branch.
type ScannerRecordChanges struct {
	BranchID     *uint
	ClearBranch  bool
	OfficeType   *OfficeType
	SerialNumber *string
	Model        *string
	Status       *ScannerStatus
	Remarks      *string
}

func (c ScannerRecordChanges) Empty() bool {
	return c.BranchID == nil && !c.ClearBranch && c.OfficeType == nil &&
		c.SerialNumber == nil && c.Model == nil && c.Status == nil && c.Remarks == nil
}

// Columns returns the update map keyed by column name.
func (c ScannerRecordChanges) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.ClearBranch {
		cols["branch_id"] = nil
	} else if c.BranchID != nil {
		cols["branch_id"] = *c.BranchID
	}
	if c.OfficeType != nil {
		cols["office_type"] = *c.OfficeType
	}
	if c.SerialNumber != nil {
		cols["serial_number"] = *c.SerialNumber
	}
	if c.Model != nil {
		cols["model"] = *c.Model
	}
	if c.Status != nil {
		cols["status"] = *c.Status
	}
	if c.Remarks != nil {
		cols["remarks"] = *c.Remarks
	}
	return cols
}

// Apply copies the changes onto r in memory.
func (c ScannerRecordChanges) Apply(r *ScannerRecord) {
	if c.ClearBranch {
		r.BranchID = nil
		r.Branch = nil
	} else if c.BranchID != nil {
		id := *c.BranchID
		r.BranchID = &id
		r.Branch = nil
	}
	if c.OfficeType != nil {
		r.OfficeType = *c.OfficeType
	}
	if c.SerialNumber != nil {
		r.SerialNumber = *c.SerialNumber
	}
	if c.Model != nil {
		r.Model = *c.Model
	}
	if c.Status != nil {
		r.Status = *c.Status
	}
	if c.Remarks != nil {
		r.Remarks = *c.Remarks
	}
}
