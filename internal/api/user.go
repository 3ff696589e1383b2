package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pot-code/lms-client/internal/domain"
)

// Token exchange credentials for a bearer token via Basic auth
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/token", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(username, password)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(body, &payload, "token response"); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", &domain.DataShapeError{Detail: "token not returned"}
	}
	return payload.Token, nil
}

// UserDetails fetch the account details of the token owner and extract the
// role. The backend serves two shapes, a nested `user.role` and a top-level
// `role`; both are tried in order, exhaustion is a DataShapeError. The raw
// role value is returned unparsed so that an out-of-enum role stays
// distinguishable from a malformed response.
func (c *Client) UserDetails(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user/details", nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(withBearer(req, token))
	if err != nil {
		return "", err
	}

	var payload struct {
		Role string `json:"role"`
		User *struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := decodeJSON(body, &payload, "user details"); err != nil {
		return "", err
	}
	if payload.User != nil && payload.User.Role != "" {
		return payload.User.Role, nil
	}
	if payload.Role != "" {
		return payload.Role, nil
	}
	return "", &domain.DataShapeError{Detail: "role information missing from user details"}
}

// SignupPayload new account request body
type SignupPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Signup create a user account and return the new user id. The id arrives
// in one of three shapes: `{"id": ...}`, `{"userId": ...}` or a bare
// scalar; shapes are tried in order.
func (c *Client) Signup(ctx context.Context, payload SignupPayload) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/user/signup", payload)
	if err != nil {
		return "", err
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return decodeUserID(body)
}

func decodeUserID(body []byte) (string, error) {
	var keyed struct {
		ID     json.RawMessage `json:"id"`
		UserID json.RawMessage `json:"userId"`
	}
	if err := json.Unmarshal(body, &keyed); err == nil {
		if id := scalarString(keyed.ID); id != "" {
			return id, nil
		}
		if id := scalarString(keyed.UserID); id != "" {
			return id, nil
		}
	}
	if id := scalarString(body); id != "" {
		return id, nil
	}
	return "", &domain.DataShapeError{Detail: "user id missing from signup response"}
}

// scalarString render a JSON number or string as its text form, "" when the
// value is neither
func scalarString(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return ""
}
