package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestCreateUser(t *testing.T) {
	st, mock := mockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@b.com", "hash", true, "beginner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "is_technical", "experience_level"}).
			AddRow("u-1", "a@b.com", true, "beginner"))

	u, err := st.CreateUser(context.Background(), "a@b.com", "hash", true, "beginner")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != "u-1" || u.ExperienceLevel != "beginner" {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	st, mock := mockStore(t)

	mock.ExpectQuery(`SELECT id, email, password_hash, is_technical, experience_level FROM users`).
		WithArgs("nobody@b.com").
		WillReturnError(sql.ErrNoRows)

	if _, _, err := st.GetUserByEmail(context.Background(), "nobody@b.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProfileFillsDefaults(t *testing.T) {
	st, mock := mockStore(t)

	mock.ExpectQuery(`SELECT experience_level, background, language, is_technical FROM users`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"experience_level", "background", "language", "is_technical"}).
			AddRow(nil, nil, nil, nil))

	p, err := st.GetProfile(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.ExperienceLevel != DefaultExperienceLevel || p.Background != DefaultBackground || p.Language != DefaultLanguage {
		t.Fatalf("null columns should fall back to defaults, got %+v", p)
	}
	if p.IsTechnical {
		t.Fatalf("null is_technical should read false")
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	st, mock := mockStore(t)
	level := "advanced"
	background := "ROS developer"

	mock.ExpectExec(`UPDATE users SET experience_level = \$1, background = \$2 WHERE id = \$3`).
		WithArgs("advanced", "ROS developer", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT experience_level, background, language, is_technical FROM users`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"experience_level", "background", "language", "is_technical"}).
			AddRow("advanced", "ROS developer", "english", true))

	p, err := st.UpdateProfile(context.Background(), "u-1", ProfileUpdate{
		ExperienceLevel: &level,
		Background:      &background,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.ExperienceLevel != "advanced" || p.Background != "ROS developer" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	st, mock := mockStore(t)
	level := "beginner"

	mock.ExpectExec(`UPDATE users SET experience_level = \$1 WHERE id = \$2`).
		WithArgs("beginner", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := st.UpdateProfile(context.Background(), "missing", ProfileUpdate{ExperienceLevel: &level}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	st, mock := mockStore(t)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("u-1", "refresh-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE user_id=\$1`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := st.CreateSession(context.Background(), "u-1", "refresh-token", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := st.DeleteSessionsForUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("DeleteSessionsForUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
