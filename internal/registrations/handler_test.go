package registrations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kingscode/bootcamp-api/internal/qrcode"
)

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Course string `json:"course"`
	} `json:"data"`
}

type testServer struct {
	router *gin.Engine
	store  *memStore
	mail   *stubMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	mail := &stubMailer{}
	svc := NewService(store, qrcode.NewEncoder(128), mail, nil, nil)
	h := NewHandler(svc, store, nil)

	r := gin.New()
	r.POST("/api/register", h.Register)
	r.GET("/api/registrations", h.List)
	r.GET("/api/registrations/stats", h.Stats)
	r.GET("/api/registrations/:id", h.Get)
	r.GET("/api/registrations/:id/qrcode", h.QRCode)
	return &testServer{router: r, store: store, mail: mail}
}

func (s *testServer) post(t *testing.T, body interface{}) (*httptest.ResponseRecorder, registerResponse) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	var resp registerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func payload() map[string]interface{} {
	return map[string]interface{}{
		"firstName":   "Ada",
		"middleName":  "",
		"lastName":    "Lovelace",
		"email":       "ada@example.com",
		"dateOfBirth": "1995-12-10",
		"course":      "BlockChain And Crypto Basics",
		"hasLaptop":   false,
	}
}

func TestRegisterCreated(t *testing.T) {
	s := newTestServer(t)
	body := payload()
	body["middleName"] = "King"

	w, resp := s.post(t, body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Registration successful! Confirmation email sent.", resp.Message)
	assert.Equal(t, "Ada King Lovelace", resp.Data.Name)
	assert.Equal(t, "ada@example.com", resp.Data.Email)
	assert.Equal(t, "BlockChain And Crypto Basics", resp.Data.Course)

	stored := s.store.only()
	assert.Equal(t, stored.ID.String(), resp.Data.ID)
	assert.True(t, strings.HasPrefix(stored.QRCode, "data:image/png;base64,"))
	assert.Greater(t, len(stored.QRCode), len("data:image/png;base64,"))
	require.Len(t, s.mail.sent, 1)
}

func TestRegisterMissingFields(t *testing.T) {
	for _, field := range []string{"firstName", "lastName", "email", "dateOfBirth", "course", "hasLaptop"} {
		t.Run("missing "+field, func(t *testing.T) {
			s := newTestServer(t)
			body := payload()
			delete(body, field)

			w, resp := s.post(t, body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, "All required fields must be provided.", resp.Message)
			assert.Equal(t, 0, s.store.count())
		})
	}

	t.Run("null hasLaptop", func(t *testing.T) {
		s := newTestServer(t)
		body := payload()
		body["hasLaptop"] = nil

		w, resp := s.post(t, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "All required fields must be provided.", resp.Message)
		assert.Equal(t, 0, s.store.count())
	})
}

func TestRegisterInvalidInput(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.post(t, `{"firstName":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body.", resp.Message)

	body := payload()
	body["course"] = "Underwater Basket Weaving"
	w, resp = s.post(t, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please select a valid course.", resp.Message)
	assert.Equal(t, 0, s.store.count())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.post(t, payload())
	require.Equal(t, http.StatusCreated, w.Code)

	body := payload()
	body["email"] = "  ADA@example.com"
	w, resp := s.post(t, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "already registered")
	assert.Equal(t, 1, s.store.count())
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	s := newTestServer(t)
	const n = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, _ := json.Marshal(payload())
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			s.router.ServeHTTP(w, req)

			mu.Lock()
			defer mu.Unlock()
			switch w.Code {
			case http.StatusCreated:
				created++
			case http.StatusBadRequest:
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, dupes)
	assert.Equal(t, 1, s.store.count())
}

func TestRegisterServerError(t *testing.T) {
	s := newTestServer(t)
	s.mail.err = errors.New("dial tcp: i/o timeout")

	w, resp := s.post(t, payload())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Server error. Please try again later.", resp.Message)
	assert.Equal(t, 1, s.store.count())
}

func TestStaffReadEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, first := s.post(t, payload())
	second := payload()
	second["email"] = "grace@example.com"
	second["course"] = "Web Development Basics"
	second["hasLaptop"] = true
	s.post(t, second)

	t.Run("list", func(t *testing.T) {
		w := s.get("/api/registrations")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Data, 2)
		for _, row := range body.Data {
			assert.NotContains(t, row, "qrCode")
		}
		assert.NotContains(t, w.Body.String(), qrcode.DataURLPrefix)
	})

	t.Run("list by course", func(t *testing.T) {
		w := s.get("/api/registrations?course=Web+Development+Basics")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "grace@example.com")
		assert.NotContains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("list rejects bad params", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.get("/api/registrations?course=Nope").Code)
		assert.Equal(t, http.StatusBadRequest, s.get("/api/registrations?limit=0").Code)
		assert.Equal(t, http.StatusBadRequest, s.get("/api/registrations?offset=-1").Code)
	})

	t.Run("get", func(t *testing.T) {
		w := s.get("/api/registrations/" + first.Data.ID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")

		assert.Equal(t, http.StatusNotFound, s.get("/api/registrations/"+uuid.NewString()).Code)
		assert.Equal(t, http.StatusBadRequest, s.get("/api/registrations/not-a-uuid").Code)
	})

	t.Run("qrcode", func(t *testing.T) {
		w := s.get("/api/registrations/" + first.Data.ID + "/qrcode")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("stats", func(t *testing.T) {
		w := s.get("/api/registrations/stats")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data struct {
				Total   int `json:"total"`
				Courses []struct {
					Course     string `json:"course"`
					Total      int    `json:"total"`
					WithLaptop int    `json:"withLaptop"`
				} `json:"courses"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Data.Total)
		assert.Len(t, body.Data.Courses, 2)
	})
}

func TestRegisterRejectsOversizedNames(t *testing.T) {
	s := newTestServer(t)
	body := payload()
	body["firstName"] = strings.Repeat("A", 3000)

	w, resp := s.post(t, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Names must be at most 100 characters.", resp.Message)
	assert.Equal(t, 0, s.store.count())
}

func TestRegisterFailureLogOmitsEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	store := newMemStore()
	svc := NewService(store, qrcode.NewEncoder(128), &stubMailer{err: errors.New("dial tcp: i/o timeout")}, nil, logger)
	h := NewHandler(svc, store, logger)

	r := gin.New()
	r.POST("/api/register", h.Register)
	raw, err := json.Marshal(payload())
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	entries := logs.FilterMessage("registration failed").All()
	require.Len(t, entries, 1)
	for k, v := range entries[0].ContextMap() {
		assert.NotContains(t, fmt.Sprint(v), "ada@example.com", k)
	}
}
