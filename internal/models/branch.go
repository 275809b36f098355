package models

import "time"

type Branch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BranchName string    `gorm:"size:255;not null;uniqueIndex:idx_branches_branch_name" json:"branch_name"`
	BranchCode string    `gorm:"size:255;not null;uniqueIndex:idx_branches_branch_code" json:"branch_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ScannerRecords []ScannerRecord `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
}
