package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/jamboshop/jamboshop/internal/auth"
	"github.com/jamboshop/jamboshop/internal/database/testutil"
	"github.com/jamboshop/jamboshop/internal/models"
	"github.com/jamboshop/jamboshop/internal/notifications"
	"github.com/jamboshop/jamboshop/internal/services"
	"github.com/jamboshop/jamboshop/internal/verification"
)

type apiFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)

	codes, err := verification.NewService(db)
	require.NoError(t, err)

	tokens, err := iauth.NewTokenService(iauth.TokenConfig{Secret: "api-secret", Issuer: "jamboshop"})
	require.NoError(t, err)

	blacklist, err := iauth.NewBlacklistService(db)
	require.NoError(t, err)

	accounts, err := services.NewAccountService(db, codes, tokens, blacklist, notifications.NewRecorder())
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)

	stores, err := services.NewStoreService(db, 10)
	require.NoError(t, err)

	router, err := NewRouter(Deps{
		DB:        db,
		Tokens:    tokens,
		Blacklist: blacklist,
		Accounts:  accounts,
		Users:     users,
		Stores:    stores,
	})
	require.NoError(t, err)

	return &apiFixture{db: db, router: router}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) signupCode(t *testing.T, email string) string {
	t.Helper()

	var record models.VerificationCode
	require.NoError(t, f.db.
		Where("email = ? AND purpose = ?", email, models.PurposeSignup).
		Order("created_at DESC").
		Take(&record).Error)
	return record.Code
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSignupActivateLoginLogoutFlow(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/accounts/register", "", gin.H{
		"username":     "wairimu",
		"email":        "wairimu@example.com",
		"password":     "str0ng-pass",
		"phone_number": "+250788100001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Login is refused until the account is activated.
	rec = f.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "wairimu",
		"password": "str0ng-pass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	code := f.signupCode(t, "wairimu@example.com")
	rec = f.request(t, http.MethodPost, "/api/accounts/activate", "", gin.H{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Tokens struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &session))
	require.NotEmpty(t, session.Tokens.Access)

	// Replaying the activation code fails with the uniform message.
	rec = f.request(t, http.MethodPost, "/api/accounts/activate", "", gin.H{"code": code})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "CODE_NOT_VALID", decode(t, rec).Error.Code)

	rec = f.request(t, http.MethodGet, "/api/accounts/me", session.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/auth/logout", session.Tokens.Access, gin.H{
		"refresh": session.Tokens.Refresh,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The blacklisted access token no longer authenticates.
	rec = f.request(t, http.MethodGet, "/api/accounts/me", session.Tokens.Access, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetIsOpaqueOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/accounts/reset-password", "", gin.H{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/accounts/reset-password/validate", "", gin.H{
		"code": "000000",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "CODE_NOT_VALID", decode(t, rec).Error.Code)
}

func TestStoreRoutesEnforceRole(t *testing.T) {
	f := newAPIFixture(t)

	token := f.activateUser(t, "shopkeeper", "SHOPER")
	customerToken := f.activateUser(t, "browser", "USER")

	rec := f.request(t, http.MethodPost, "/api/stores", customerToken, gin.H{
		"name":         "Kiosk",
		"lat":          -1.9441,
		"lng":          30.0619,
		"phone_number": "+250788100010",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/stores", token, gin.H{
		"name":         "Kiosk",
		"lat":          -1.9441,
		"lng":          30.0619,
		"phone_number": "+250788100010",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/stores/near?lat=-1.9441&lng=30.0619", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/stores/near", customerToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func (f *apiFixture) activateUser(t *testing.T, username, userType string) string {
	t.Helper()

	email := username + "@example.com"
	rec := f.request(t, http.MethodPost, "/api/accounts/register", "", gin.H{
		"username":     username,
		"email":        email,
		"password":     "str0ng-pass",
		"phone_number": fmt.Sprintf("+25078811%04d", len(username)*7),
		"user_type":    userType,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/accounts/activate", "", gin.H{
		"code": f.signupCode(t, email),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Tokens struct {
			Access string `json:"access"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &session))
	return session.Tokens.Access
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
