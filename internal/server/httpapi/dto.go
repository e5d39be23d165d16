package httpapi

import (
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Username        string `json:"username" validate:"max=150"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type profileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Username  *string `json:"username" validate:"omitempty,max=150"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

type createNoteRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content"`
	IsFavorite bool   `json:"is_favorite"`
}

type updateNoteRequest struct {
	Title      *string `json:"title" validate:"omitempty,max=200"`
	Content    *string `json:"content"`
	IsFavorite *bool   `json:"is_favorite"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

type tokensResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type authResponse struct {
	Message string         `json:"message"`
	User    userResponse   `json:"user"`
	Tokens  tokensResponse `json:"tokens"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type noteResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       string    `json:"user"`
}

type favoritesResponse struct {
	Count   int            `json:"count"`
	Results []noteResponse `json:"results"`
}

type toggleFavoriteResponse struct {
	Message string       `json:"message"`
	Note    noteResponse `json:"note"`
}

type exportResponse struct {
	ID        string    `json:"id,omitempty"`
	Key       string    `json:"key"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.CreatedAt,
	}
}

func newAuthResponse(message string, u *models.User, pair *services.TokenPair) authResponse {
	return authResponse{
		Message: message,
		User:    newUserResponse(u),
		Tokens:  tokensResponse{Refresh: pair.RefreshToken, Access: pair.AccessToken},
	}
}

func newNoteResponse(n *models.Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		IsFavorite: n.IsFavorite,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		User:       n.OwnerID,
	}
}

func newNoteResponses(notes []*models.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteResponse(n))
	}
	return out
}

func newExportResponse(e *services.ExportResult) exportResponse {
	return exportResponse{
		ID:        e.ID,
		Key:       e.Key,
		Format:    e.Format,
		URL:       e.URL,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}
