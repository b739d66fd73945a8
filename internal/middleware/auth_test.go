package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/clientinfo"
	jwtpkg "github.com/solsticehq/core/internal/pkg/jwt"
	"github.com/solsticehq/core/internal/pkg/session"
)

type mapStore struct {
	mu      sync.Mutex
	records map[string]*models.Session
}

func (s *mapStore) Create(_ context.Context, rec *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.InvalidationID] = &clone
	return nil
}

func (s *mapStore) FindByInvalidationID(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *mapStore) DeleteByInvalidationID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *mapStore) TouchLastUsed(_ context.Context, id string, now time.Time) error {
	return nil
}

func (s *mapStore) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type noResolver struct{}

func (noResolver) ResolveUserID(_ context.Context, _ string) (session.Identity, error) {
	return session.Identity{}, session.ErrIdentityNotFound
}

func setupAuthRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := jwtpkg.NewCodec("test-secret")
	mgr := session.NewManager(codec, &mapStore{records: map[string]*models.Session{}}, noResolver{}, nil)

	pair, err := mgr.CreateSession(context.Background(), primitive.NewObjectID(), "user@example.com", "127.0.0.1", clientinfo.Info{})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(mgr), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentSubject(c))
	})
	return r, pair.AccessToken
}

func TestAuthCookie(t *testing.T) {
	r, token := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user@example.com", w.Body.String())
}

func TestAuthBearerHeader(t *testing.T) {
	r, token := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	r, _ := setupAuthRouter(t)

	for _, header := range []string{"", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestNormalizeBearer(t *testing.T) {
	assert.Equal(t, "abc", NormalizeBearer("Bearer abc"))
	assert.Equal(t, "abc", NormalizeBearer("bearer  abc "))
	assert.Equal(t, "abc", NormalizeBearer(" abc"))
	assert.Equal(t, "", NormalizeBearer(""))
}
