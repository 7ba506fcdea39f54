package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

// Store wraps the Postgres connection for users and auth sessions.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// User is an account row.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	IsTechnical     bool   `json:"is_technical"`
	ExperienceLevel string `json:"experience_level"`
}

// Profile carries the personalization fields the tutor reads. Null columns
// are filled with the same defaults the tutoring agent assumes.
type Profile struct {
	ExperienceLevel string `json:"experience_level"`
	Background      string `json:"background"`
	Language        string `json:"language"`
	IsTechnical     bool   `json:"is_technical"`
}

const (
	DefaultExperienceLevel = "intermediate"
	DefaultBackground      = "Profile not provided; using default settings."
	DefaultLanguage        = "english"
)

// ProfileUpdate is a partial personalization update; nil fields are left
// untouched.
type ProfileUpdate struct {
	ExperienceLevel *string
	Background      *string
	Language        *string
	IsTechnical     *bool
}

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash string, isTechnical bool, experienceLevel string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, is_technical, experience_level)
		 VALUES ($1,$2,$3,$4)
		 RETURNING id, email, is_technical, experience_level`,
		email, hash, isTechnical, experienceLevel,
	).Scan(&u.ID, &u.Email, &u.IsTechnical, &u.ExperienceLevel)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, string, error) {
	var u User
	var hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_technical, experience_level FROM users WHERE email=$1`,
		email,
	).Scan(&u.ID, &u.Email, &hash, &u.IsTechnical, &u.ExperienceLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrNotFound
	}
	return u, hash, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, is_technical, experience_level FROM users WHERE id=$1`,
		id,
	).Scan(&u.ID, &u.Email, &u.IsTechnical, &u.ExperienceLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Personalization operations

func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var level, background, language sql.NullString
	var isTechnical sql.NullBool
	err := s.DB.QueryRowContext(ctx,
		`SELECT experience_level, background, language, is_technical FROM users WHERE id=$1`,
		userID,
	).Scan(&level, &background, &language, &isTechnical)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		ExperienceLevel: DefaultExperienceLevel,
		Background:      DefaultBackground,
		Language:        DefaultLanguage,
	}
	if level.Valid && level.String != "" {
		p.ExperienceLevel = level.String
	}
	if background.Valid && background.String != "" {
		p.Background = background.String
	}
	if language.Valid && language.String != "" {
		p.Language = language.String
	}
	if isTechnical.Valid {
		p.IsTechnical = isTechnical.Bool
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (Profile, error) {
	var sets []string
	var args []interface{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.ExperienceLevel != nil {
		add("experience_level", *upd.ExperienceLevel)
	}
	if upd.Background != nil {
		add("background", *upd.Background)
	}
	if upd.Language != nil {
		add("language", *upd.Language)
	}
	if upd.IsTechnical != nil {
		add("is_technical", *upd.IsTechnical)
	}
	if len(sets) > 0 {
		args = append(args, userID)
		q := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
		res, err := s.DB.ExecContext(ctx, q, args...)
		if err != nil {
			return Profile{}, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return Profile{}, ErrNotFound
		}
	}
	return s.GetProfile(ctx, userID)
}

// Session operations (refresh tokens)

func (s *Store) CreateSession(ctx context.Context, userID, refreshToken string, expiresAt time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sessions (user_id, refresh_token, expires_at) VALUES ($1,$2,$3)`,
		userID, refreshToken, expiresAt,
	)
	return err
}

func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}
