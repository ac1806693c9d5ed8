package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/studyportal/authkit/pkg/apiclient"
	"github.com/studyportal/authkit/pkg/apierror"
	"github.com/studyportal/authkit/pkg/credstore"
)

// refreshCoordinator owns the single-flight refresh-token exchange. However
// many interleaved requests observe an expired access token at once, exactly
// one exchange hits the backend; the rest share its result. A failed exchange
// tears the session down once, inside the shared execution, not once per
// waiting caller.
type refreshCoordinator struct {
	client    *apiclient.Client
	store     credstore.Store
	log       *slog.Logger
	onFailure func()
	onSuccess func(token string)

	group singleflight.Group

	// gen guards against the logout-during-refresh race: Logout bumps the
	// generation, and an exchange that started under an older generation
	// discards its result instead of writing a token back into a cleared
	// store (the cancel-aware choice).
	mu  sync.Mutex
	gen uint64
}

const refreshKey = "refresh"

func newRefreshCoordinator(client *apiclient.Client, store credstore.Store, log *slog.Logger, onFailure func(), onSuccess func(string)) *refreshCoordinator {
	return &refreshCoordinator{
		client:    client,
		store:     store,
		log:       log,
		onFailure: onFailure,
		onSuccess: onSuccess,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers coalesce onto one in-flight exchange; once it settles
// the slot clears, so the next expired-token signal starts a fresh exchange.
func (rc *refreshCoordinator) Refresh(ctx context.Context) (string, error) {
	token, err, _ := rc.group.Do(refreshKey, func() (any, error) {
		return rc.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (rc *refreshCoordinator) exchange(ctx context.Context) (string, error) {
	startGen := rc.generation()

	creds, err := rc.store.Credentials(ctx)
	if err != nil || creds.RefreshToken == "" {
		rc.onFailure()
		return "", apierror.Wrap(apierror.KindTokenRefreshFailed, "no refresh token available", err)
	}

	resp, err := rc.client.Post(ctx, "/token/refresh/", refreshRequest{Refresh: creds.RefreshToken},
		apiclient.WithoutAuth(), apiclient.WithoutRetry())
	if err != nil {
		rc.onFailure()
		return "", apierror.Wrap(apierror.KindTokenRefreshFailed, "refresh token rejected", err)
	}

	var pair refreshResponse
	if err := resp.Decode(&pair); err != nil || pair.Access == "" {
		rc.onFailure()
		return "", apierror.Wrap(apierror.KindTokenRefreshFailed, "refresh response missing access token", err)
	}

	// A logout raced with this exchange: the session is gone, the result is
	// stale. Do not write it back and do not tear down a second time.
	if rc.generation() != startGen {
		rc.log.DebugContext(ctx, "discarding refresh result after logout")
		return "", apierror.New(apierror.KindTokenRefreshFailed, "session was closed during refresh")
	}

	newCreds := credstore.Credentials{AccessToken: pair.Access, RefreshToken: creds.RefreshToken}
	if pair.Refresh != "" {
		// Backend rotated the refresh token too.
		newCreds.RefreshToken = pair.Refresh
	}
	if err := rc.store.SetCredentials(ctx, newCreds); err != nil {
		rc.onFailure()
		return "", apierror.Wrap(apierror.KindTokenRefreshFailed, "failed to persist refreshed tokens", err)
	}

	rc.log.DebugContext(ctx, "access token refreshed")
	if rc.onSuccess != nil {
		rc.onSuccess(pair.Access)
	}
	return pair.Access, nil
}

// invalidate marks any in-flight exchange stale. Called from Logout.
func (rc *refreshCoordinator) invalidate() {
	rc.mu.Lock()
	rc.gen++
	rc.mu.Unlock()
	rc.group.Forget(refreshKey)
}

func (rc *refreshCoordinator) generation() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen
}
