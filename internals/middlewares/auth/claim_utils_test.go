package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

func TestExtractBearerToken(t *testing.T) {
	g := NewWithT(t)

	cases := []struct {
		name, header, cookie, want string
		wantErr                    bool
	}{
		{name: "header", header: "Bearer abc", want: "abc"},
		{name: "lower scheme and spaces", header: "bearer   \"abc\"", want: "abc"},
		{name: "cookie fallback", cookie: "fromcookie", want: "fromcookie"},
		{name: "missing", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
	}

	for _, tc := range cases {
		app := fiber.New()
		var got string
		var gotErr error
		app.Get("/", func(c *fiber.Ctx) error {
			got, gotErr = extractBearerToken(c)
			return nil
		})
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if tc.cookie != "" {
			req.Header.Set("Cookie", "access_token="+tc.cookie)
		}
		_, err := app.Test(req)
		g.Expect(err).NotTo(HaveOccurred(), tc.name)
		if tc.wantErr {
			g.Expect(gotErr).To(HaveOccurred(), tc.name)
			continue
		}
		g.Expect(gotErr).NotTo(HaveOccurred(), tc.name)
		g.Expect(got).To(Equal(tc.want), tc.name)
	}
}

func TestValidateTokenExpiryHonoursSkew(t *testing.T) {
	g := NewWithT(t)
	now := time.Now().Unix()

	g.Expect(validateTokenExpiry(jwt.MapClaims{"exp": float64(now + 60)}, 0)).To(Succeed())
	g.Expect(validateTokenExpiry(jwt.MapClaims{"exp": float64(now - 10)}, 30*time.Second)).To(Succeed())
	g.Expect(validateTokenExpiry(jwt.MapClaims{"exp": float64(now - 120)}, 30*time.Second)).To(HaveOccurred())
	g.Expect(validateTokenExpiry(jwt.MapClaims{}, 0)).To(HaveOccurred())
}

func TestParseAccessClaimsRejectsRefreshTokens(t *testing.T) {
	g := NewWithT(t)
	id := uuid.New()

	sign := func(typ string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"typ": typ, "sub": id.String(), "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		g.Expect(err).NotTo(HaveOccurred())
		return s
	}

	claims, err := parseAccessClaims(sign("access"), "secret")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(extractUserID(claims)).To(Equal(id))

	_, err = parseAccessClaims(sign("refresh"), "secret")
	g.Expect(err).To(HaveOccurred())

	_, err = parseAccessClaims(sign("access"), "other")
	g.Expect(err).To(HaveOccurred())
}

func TestOnlyRoles(t *testing.T) {
	g := NewWithT(t)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if r := c.Get("X-Role"); r != "" {
			c.Locals(LocRole, r)
		}
		return c.Next()
	})
	app.Get("/", OnlyRoles("admins only", "admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	do := func(role string) int {
		req := httptest.NewRequest("GET", "/", nil)
		if role != "" {
			req.Header.Set("X-Role", role)
		}
		resp, err := app.Test(req)
		g.Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode
	}

	g.Expect(do("admin")).To(Equal(fiber.StatusNoContent))
	g.Expect(do("user")).To(Equal(fiber.StatusForbidden))
	g.Expect(do("")).To(Equal(fiber.StatusUnauthorized))
}
