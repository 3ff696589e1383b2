package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pot-code/lms-client/internal/domain"
)

// RegisterAuthorPayload author profile registration body
type RegisterAuthorPayload struct {
	FullName   string `json:"fullName"`
	Contact    string `json:"contact,omitempty"`
	Website    string `json:"website,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
	UserID     string `json:"userId"`
}

// RegisterAuthor create an author profile for a freshly signed up user; no
// authentication required
func (c *Client) RegisterAuthor(ctx context.Context, payload RegisterAuthorPayload) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/author/register", payload)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// AuthorProfile fetch the author profile of the token owner
func (c *Client) AuthorProfile(ctx context.Context, token string) (*domain.Author, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/author/get", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return nil, err
	}

	author := new(domain.Author)
	if err := decodeJSON(body, author, "author profile"); err != nil {
		return nil, err
	}
	return author, nil
}

// UploadProfilePic upload a profile picture as multipart form data and
// return the stored file name. The backend answers either `{"fileName":
// ...}` or the bare name.
func (c *Client) UploadProfilePic(ctx context.Context, token string, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/author/upload/profile-pic", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	body, err := c.do(withBearer(req, token))
	if err != nil {
		return "", err
	}
	return decodeFileName(body)
}

func decodeFileName(body []byte) (string, error) {
	var keyed struct {
		FileName string `json:"fileName"`
	}
	if err := json.Unmarshal(body, &keyed); err == nil && keyed.FileName != "" {
		return keyed.FileName, nil
	}
	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && bare != "" {
		return bare, nil
	}
	if len(body) > 0 && !json.Valid(body) {
		return string(body), nil
	}
	return "", &domain.DataShapeError{Detail: "file name missing from upload response"}
}
