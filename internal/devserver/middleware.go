package devserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/theaddress/rentals/internal/core/domain"
)

// mintToken issues an HS256 bearer token for the fixture account.
func (s *Server) mintToken(user domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   jwt.NewNumericDate(time.Now().Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.secret))
}

// auth validates the bearer token and injects claims into context.
func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			s.metrics.authFailures.Inc()
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.metrics.authFailures.Inc()
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(s.secret), nil
		})
		if err != nil || !tkn.Valid {
			s.metrics.authFailures.Inc()
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}

		c.Set("email", claims["email"])
		c.Set("role", claims["role"])
		return next(c)
	}
}

// requireRole gates a route group on the role claim.
func (s *Server) requireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return fail(c, http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}

// storeUpload reads the optional image part into memory and returns the
// key it is served under, or "" when the request carries no image.
func (s *Server) storeUpload(c echo.Context) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		// Absent part: multipart payloads without an image are valid.
		return "", nil
	}

	data, err := readMultipartFile(fh)
	if err != nil {
		return "", fmt.Errorf("could not read image: %w", err)
	}

	s.mu.Lock()
	key := fmt.Sprintf("%d_%s", len(s.uploads)+1, fh.Filename)
	s.uploads[key] = data
	s.mu.Unlock()

	s.metrics.uploadsStored.Inc()
	return key, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
