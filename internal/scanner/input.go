package scanner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"
	"scanner-registry/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// OptionalID tells an absent branch_id apart from an explicit null.
type OptionalID struct {
	Set   bool
	Value *uint
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(b, &id); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(id), Field: "branch_id"}
	}
	o.Value = &id
	return nil
}

// CreateRequest is the full field set of a scanner record. Every field is
// optional but at least one must carry a value.
type CreateRequest struct {
	BranchID     *uint   `json:"branch_id"`
	OfficeType   *string `json:"office_type"`
	SerialNumber *string `json:"serial_number"`
	Model        *string `json:"model"`
	Status       *string `json:"status"`
	Remarks      *string `json:"remarks"`
}

// UpdateRequest replaces only the fields present in the body. A null
// branch_id unassigns the record; an empty office_type or status clears it.
type UpdateRequest struct {
	BranchID     OptionalID `json:"branch_id"`
	OfficeType   *string    `json:"office_type"`
	SerialNumber *string    `json:"serial_number"`
	Model        *string    `json:"model"`
	Status       *string    `json:"status"`
	Remarks      *string    `json:"remarks"`
}

// toRecord validates the request and builds the record to insert.
func (r CreateRequest) toRecord() (*models.ScannerRecord, error) {
	changes, err := normalizeFields(r.OfficeType, r.SerialNumber, r.Model, r.Status, r.Remarks)
	if err != nil {
		return nil, err
	}
	if r.BranchID == nil && !hasValue(changes) {
		return nil, apperror.Validation("", "At least one field is required.")
	}

	rec := &models.ScannerRecord{}
	if r.BranchID != nil {
		id := *r.BranchID
		rec.BranchID = &id
	}
	changes.Apply(rec)
	return rec, nil
}

// toChanges validates every present field and builds the partial update.
func (r UpdateRequest) toChanges() (models.ScannerRecordChanges, error) {
	changes, err := normalizeFields(r.OfficeType, r.SerialNumber, r.Model, r.Status, r.Remarks)
	if err != nil {
		return changes, err
	}
	if r.BranchID.Set {
		if r.BranchID.Value == nil {
			changes.ClearBranch = true
		} else {
			id := *r.BranchID.Value
			changes.BranchID = &id
		}
	}
	return changes, nil
}

func hasValue(c models.ScannerRecordChanges) bool {
	if c.OfficeType != nil && *c.OfficeType != "" {
		return true
	}
	if c.Status != nil && *c.Status != "" {
		return true
	}
	for _, v := range []*string{c.SerialNumber, c.Model, c.Remarks} {
		if v != nil && *v != "" {
			return true
		}
	}
	return false
}

// normalizeFields trims text, maps legacy enum spellings and validates. An
// empty office type or status clears the column.
func normalizeFields(officeType, serial, model, status, remarks *string) (models.ScannerRecordChanges, error) {
	var c models.ScannerRecordChanges

	if officeType != nil {
		v := models.OfficeType("")
		if strings.TrimSpace(*officeType) != "" {
			v = validation.NormalizeOfficeType(*officeType)
			if err := validation.Field("office_type", string(v), "office_type"); err != nil {
				return c, err
			}
		}
		c.OfficeType = &v
	}
	if status != nil {
		v := models.ScannerStatus("")
		if strings.TrimSpace(*status) != "" {
			v = validation.NormalizeStatus(*status)
			if err := validation.Field("status", string(v), "scanner_status"); err != nil {
				return c, err
			}
		}
		c.Status = &v
	}

	text := []struct {
		name string
		in   *string
		out  **string
	}{
		{"serial_number", serial, &c.SerialNumber},
		{"model", model, &c.Model},
		{"remarks", remarks, &c.Remarks},
	}
	for _, f := range text {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if err := validation.Field(f.name, v, "max=255"); err != nil {
			return c, err
		}
		*f.out = &v
	}
	return c, nil
}

// decodeStrict decodes a JSON body into dst and rejects unknown fields.
func decodeStrict(c *fiber.Ctx, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.Validation(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", strings.ReplaceAll(typeErr.Field, "_", " ")))
	}
	const unknownPrefix = "json: unknown field "
	if msg := err.Error(); strings.HasPrefix(msg, unknownPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownPrefix), `"`)
		return apperror.Validation(field, fmt.Sprintf("The %s field is not allowed.", field))
	}
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
}
