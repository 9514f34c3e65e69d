package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestRegister_CreatesUserAndAccount(t *testing.T) {
	s, mock := newStore(t, true)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user`).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", true, s.now().UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO account \(id, user_id, provider, password\)`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := s.Register(context.Background(), Registration{Name: " Ada ", Email: " Ada@Example.com", Password: "Plum-Tree-Harbor-42"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == "" {
		t.Fatalf("empty user id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegister_UnverifiedOutsideDemo(t *testing.T) {
	s, mock := newStore(t, false)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user`).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO account`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if _, err := s.Register(context.Background(), Registration{Name: "Ada", Email: "ada@example.com", Password: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, mock := newStore(t, false)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ada@example.com'"})
	mock.ExpectRollback()

	_, err := s.Register(context.Background(), Registration{Name: "Ada", Email: "ada@example.com", Password: "x"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v; want ErrEmailTaken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegister_AccountFailureRollsBack(t *testing.T) {
	s, mock := newStore(t, false)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO account`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.Register(context.Background(), Registration{Name: "Ada", Email: "ada@example.com", Password: "x"})
	if err == nil || errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v; want wrapped account error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
