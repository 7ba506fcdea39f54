package server

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	IsTechnical     bool   `json:"is_technical"`
	ExperienceLevel string `json:"experience_level"`
}

// AuthSigninRequest represents the signin payload.
type AuthSigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserMetadata carries the profile hints attached to a user record.
type UserMetadata struct {
	IsTechnical     bool   `json:"is_technical"`
	ExperienceLevel string `json:"experience_level"`
}

// AuthUser is the user object embedded in auth responses.
type AuthUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

// AuthSession carries the issued token pair.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthResponse is the combined signup/signin response.
type AuthResponse struct {
	User    AuthUser    `json:"user"`
	Session AuthSession `json:"session"`
}

// ProfileResponse is the personalization view of a user.
type ProfileResponse struct {
	ExperienceLevel string `json:"experience_level"`
	Background      string `json:"background"`
	Language        string `json:"language"`
	IsTechnical     bool   `json:"is_technical"`
}

// ProfileUpdateRequest updates any subset of the personalization fields.
type ProfileUpdateRequest struct {
	ExperienceLevel *string `json:"experience_level,omitempty"`
	Background      *string `json:"background,omitempty"`
	Language        *string `json:"language,omitempty"`
	IsTechnical     *bool   `json:"is_technical,omitempty"`
}

// ChatRequest is a single tutoring turn.
type ChatRequest struct {
	Query        string `json:"query"`
	SessionID    string `json:"session_id,omitempty"`
	SelectedText string `json:"selected_text,omitempty"`
}

// ChatSource is one retrieved chunk cited by the answer.
type ChatSource struct {
	Chapter    string  `json:"chapter"`
	Section    string  `json:"section"`
	ChapterURL string  `json:"chapter_url"`
	Score      float64 `json:"score"`
}

// ChatResponse carries the tutor answer and its sources.
type ChatResponse struct {
	Response  string       `json:"response"`
	Sources   []ChatSource `json:"sources"`
	SessionID string       `json:"session_id"`
}

// SearchRequest queries the retrieval service directly.
type SearchRequest struct {
	Query        string `json:"query"`
	SelectedText string `json:"selected_text,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}
