package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validate = validator.New()

// ok writes the success envelope.
func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// bindJSON parses the body into dst and runs its validate tags.
func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperror.Validation(strings.ToLower(fe.Field()) + " failed " + fe.Tag() + " validation")
		}
		return apperror.Validation(err.Error())
	}
	return nil
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(v), nil
}

// page returns offset and limit from ?page= and ?per_page=.
func page(c *fiber.Ctx) (int, int) {
	p := c.QueryInt("page", 1)
	if p < 1 {
		p = 1
	}
	size := c.QueryInt("per_page", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (p - 1) * size, size
}

func currentUser(c *fiber.Ctx) usercontext.UserContext {
	return usercontext.GetUserContext(c)
}

// GetClientIP determines the client address behind Cloudflare or a proxy.
// It returns the IPv4 and IPv6 candidates, either of which may be empty.
func GetClientIP(c *fiber.Ctx) (string, string) {
	var candidates []string
	if cf := strings.TrimSpace(c.Get("CF-Connecting-IP")); cf != "" {
		candidates = append(candidates, cf)
	}
	for _, ip := range strings.Split(c.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			candidates = append(candidates, ip)
		}
	}
	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		candidates = append(candidates, real)
	}
	candidates = append(candidates, c.IP())

	var ipv4, ipv6 string
	for _, ip := range candidates {
		// IPv4-mapped IPv6 (::ffff:192.0.2.1)
		if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
			ip = strings.TrimPrefix(ip, "::ffff:")
		}
		if strings.Contains(ip, ":") {
			if ipv6 == "" {
				ipv6 = ip
			}
		} else if ipv4 == "" {
			ipv4 = ip
		}
		if ipv4 != "" && ipv6 != "" {
			break
		}
	}
	return ipv4, ipv6
}
