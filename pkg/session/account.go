package session

import (
	"context"
	"net/http"

	"github.com/studyportal/authkit/pkg/apiclient"
	"github.com/studyportal/authkit/pkg/apierror"
	"github.com/studyportal/authkit/pkg/credstore"
)

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// RequestPasswordReset asks the backend to email a reset token. Works
// unauthenticated; an unknown email surfaces as KindEmailNotFound.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := m.client.Post(ctx, "/password-reset/", passwordResetRequest{Email: email}, apiclient.WithoutAuth())
	if err != nil {
		return apierror.ClassifyLogin(err)
	}
	return nil
}

// ConfirmPasswordReset completes the reset flow with the emailed token and
// the new password. Does not log the user in.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	_, err := m.client.Post(ctx, "/password-reset/confirm/", passwordResetConfirm{Token: token, Password: password}, apiclient.WithoutAuth())
	if err != nil {
		return apierror.ClassifyLogin(err)
	}
	return nil
}

// UpdateProfile sends a partial multipart profile update, optionally with a
// new profile picture. On success the cached snapshot is replaced and an
// EventUserUpdated fires.
func (m *Manager) UpdateProfile(ctx context.Context, fields map[string]string, picture *apiclient.FilePart) (*credstore.UserSnapshot, error) {
	var files []apiclient.FilePart
	if picture != nil {
		files = append(files, *picture)
	}

	payload, contentType, err := apiclient.MultipartBody(fields, files...)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindUnknown, "failed to encode profile update", err)
	}

	resp, err := m.client.Do(ctx, http.MethodPatch, "/profile/update/", payload, apiclient.WithContentType(contentType))
	if err != nil {
		return nil, apierror.Classify(err)
	}

	var user credstore.UserSnapshot
	if err := resp.Decode(&user); err != nil {
		return nil, apierror.Wrap(apierror.KindUnknown, "unexpected profile update response", err)
	}

	if err := m.store.SetCachedUser(ctx, &user); err != nil {
		m.log.WarnContext(ctx, "failed to cache updated snapshot", "error", err)
	}
	m.setUser(&user)
	m.emit(EventUserUpdated, &user)
	return &user, nil
}
