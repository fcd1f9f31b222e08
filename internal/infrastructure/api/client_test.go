package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theaddress/rentals/internal/core/domain"
)

func newTestClient(url string, token string) *Client {
	source := TokenSource(nil)
	if token != "" {
		source = func() string { return token }
	}
	return NewClient(url, source, zerolog.Nop())
}

func jsonBody(t *testing.T, w http.ResponseWriter, code int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLogin_DecodesTokenAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "login is sent unauthenticated")

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req["email"])

		jsonBody(t, w, http.StatusOK, map[string]any{
			"access_token": "tok1",
			"user": map[string]string{
				"id": "1", "email": "a@x.com", "firstName": "A", "lastName": "X", "role": "admin",
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	token, user, err := client.Login(context.Background(), "a@x.com", "p")

	require.NoError(t, err)
	assert.Equal(t, "tok1", token)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestLogin_UnauthorizedCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(t, w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, _, err := client.Login(context.Background(), "a@x.com", "wrong")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "Invalid credentials", domain.ErrorMessage(err, "fallback"))
}

func TestLogin_MalformedResponseIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// 200 with no token: the shape check must refuse it.
		jsonBody(t, w, http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, _, err := client.Login(context.Background(), "a@x.com", "p")

	assert.ErrorIs(t, err, domain.ErrServer)
}

func TestBearerAttachedWhenPresent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		jsonBody(t, w, http.StatusOK, []domain.Apartment{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok1")
	_, err := client.ListAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok1", got)
}

func TestBearerOmittedWhenAnonymous(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		jsonBody(t, w, http.StatusOK, []domain.Apartment{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, err := client.ListAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAll_PreservesServerOrderAndPriceString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": 3, "name": "C", "price": "2890.00"},
			{"id": 1, "name": "A", "price": "850.50"}
		]`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	list, err := client.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID, "client applies no reordering")
	assert.Equal(t, "2890.00", list[0].Price)
	assert.Equal(t, "850.50", list[1].Price)
}

func TestGetByID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(t, w, http.StatusNotFound, map[string]string{"message": "Apartment not found"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, err := client.GetByID(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServerError_MessageArrayJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(t, w, http.StatusBadRequest, map[string]any{
			"message": []string{"name is required", "price is required"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, err := client.ListAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServer)
	assert.Equal(t, "name is required; price is required", domain.ErrorMessage(err, "fallback"))
}

func TestNetworkFailureNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(srv.URL, "")
	_, err := client.ListAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)

	var re *domain.RequestError
	require.True(t, errors.As(err, &re), "transport errors must be normalized, never raw")
}

func TestCreate_MultipartFieldsAndImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Garden Studio", r.FormValue("name"))
		assert.Equal(t, "12 Elm Street", r.FormValue("address"))
		assert.Equal(t, "Bright studio", r.FormValue("description"))
		assert.Equal(t, "2", r.FormValue("numberOfRooms"))
		assert.Equal(t, "850.5", r.FormValue("price"), "numbers travel as decimal strings")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "studio.jpg", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "fake-image-bytes", string(data))

		jsonBody(t, w, http.StatusCreated, domain.Apartment{ID: 7, Name: "Garden Studio", Price: "850.5"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok1")
	created, err := client.Create(context.Background(), domain.ApartmentForm{
		Name:          "Garden Studio",
		Address:       "12 Elm Street",
		Description:   "Bright studio",
		NumberOfRooms: 2,
		Price:         850.5,
		Image: &domain.Attachment{
			Filename: "studio.jpg",
			Reader:   strings.NewReader("fake-image-bytes"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
}

func TestCreate_WithoutImageOmitsPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		assert.Error(t, err, "no image part expected")
		jsonBody(t, w, http.StatusCreated, domain.Apartment{ID: 8, Name: "Bare"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok1")
	form := domain.ApartmentForm{Name: "Bare", Address: "x", Description: "y", NumberOfRooms: 1, Price: 1}
	created, err := client.Create(context.Background(), form)

	require.NoError(t, err)
	assert.Equal(t, int64(8), created.ID)
}

func TestUpdate_UsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/apartments/5", r.URL.Path)
		jsonBody(t, w, http.StatusOK, domain.Apartment{ID: 5, Name: "Renamed"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok1")
	form := domain.ApartmentForm{Name: "Renamed", Address: "x", Description: "y", NumberOfRooms: 1, Price: 1}
	updated, err := client.Update(context.Background(), 5, form)

	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/apartments/5", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "tok1")
	assert.NoError(t, client.Delete(context.Background(), 5))
}

func TestRegister_NoSessionSideEffect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		var req domain.RegisterInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req.Email)
		jsonBody(t, w, http.StatusCreated, map[string]string{"id": "9"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	err := client.Register(context.Background(), domain.RegisterInput{
		Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "X",
	})

	assert.NoError(t, err)
}
