package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestCreateInsertsRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO people").
		WithArgs(pgxmock.AnyArg(), "Dana Reyes", "555-0134", "dana@example.com", "patient").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	person, err := repo.Create(context.Background(), &CreateRequest{
		Name:  " Dana Reyes ",
		Phone: "555-0134",
		Email: "Dana@Example.com",
		Kind:  KindPatient,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if person.ID == "" {
		t.Fatal("expected generated ID")
	}
	if person.Email != "dana@example.com" {
		t.Fatalf("expected normalized email, got %q", person.Email)
	}
	if !person.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at %v", person.CreatedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	mock, _ := pgxmock.NewPool()
	defer mock.Close()
	repo := newRepositoryWithQuerier(mock)

	cases := []CreateRequest{
		{Name: "", Phone: "555", Kind: KindPatient},
		{Name: "A", Kind: KindPatient},
		{Name: "A", Phone: "555", Kind: Kind("robot")},
	}
	for _, req := range cases {
		if _, err := repo.Create(context.Background(), &req); err == nil {
			t.Fatalf("expected validation error for %+v", req)
		}
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	mock.ExpectQuery("SELECT id, name, phone, email, kind, created_at").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByPhoneScansRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, phone, email, kind, created_at").
		WithArgs("555-0134").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "kind", "created_at"}).
			AddRow("p-1", "Dana Reyes", "555-0134", "dana@example.com", "patient", created))

	person, err := repo.GetByPhone(context.Background(), " 555-0134 ")
	if err != nil {
		t.Fatalf("GetByPhone returned error: %v", err)
	}
	if person.ID != "p-1" || person.Kind != KindPatient {
		t.Fatalf("unexpected person: %+v", person)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindDoctorByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithQuerier(mock)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`kind = 'doctor'`).
		WithArgs("dr@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "kind", "created_at"}).
			AddRow("d-1", "Dr. Okafor", "555-0100", "dr@example.com", "doctor", created))

	doctor, err := repo.FindDoctorByEmail(context.Background(), "DR@example.com")
	if err != nil {
		t.Fatalf("FindDoctorByEmail returned error: %v", err)
	}
	if doctor.Kind != KindDoctor {
		t.Fatalf("expected doctor, got %+v", doctor)
	}
}
