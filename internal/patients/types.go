package patients

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("patient not found")

// Patient is one monitored-patient record.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            string    `json:"age"`
	Address        string    `json:"address"`
	MedicalHistory string    `json:"medical_history"`
	CaretakerName  string    `json:"caretaker_name"`
	CaretakerPhone string    `json:"caretaker_phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Input carries the writable patient fields for create and update.
type Input struct {
	Name           string `json:"name"`
	Age            string `json:"age"`
	Address        string `json:"address"`
	MedicalHistory string `json:"medical_history"`
	CaretakerName  string `json:"caretaker_name"`
	CaretakerPhone string `json:"caretaker_phone"`
}

// Validate checks that all registration fields are present.
func (in Input) Validate() error {
	if in.Name == "" || in.Age == "" || in.Address == "" || in.MedicalHistory == "" ||
		in.CaretakerName == "" || in.CaretakerPhone == "" {
		return errors.New("all patient fields are required")
	}
	return nil
}

// Store persists and retrieves patient records.
type Store interface {
	List(ctx context.Context) ([]Patient, error)
	Get(ctx context.Context, id string) (Patient, error)
	Create(ctx context.Context, in Input) (Patient, error)
	Update(ctx context.Context, id string, in Input) (Patient, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
