package middleware

import (
	"errors"
	"net/http"
	"strings"

	"mealmates/internal/config"
	"mealmates/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string
	CtxUserRoleKey = "user_role" // model.Role
	CtxUserNameKey = "user_name" // string（任意）
)

var errNoToken = errors.New("no bearer token")

// bearerAuth用のJWT検証ミドルウェア。トークンは認証サービスが発行する
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, cfg); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

// トークンが無ければゲストとして通す。あるのに不正なら401
func OptionalAuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, cfg)
			if err != nil && !errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, cfg config.Config) error {
	//Authorizationヘッダを取得
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return errNoToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errors.New("malformed authorization header")
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return errors.New("empty token")
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return errors.New("invalid token")
	}

	//claimsを取り出す
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid claims")
	}

	userID, err := parseString(claims["sub"])
	if err != nil || userID == "" {
		return errors.New("invalid sub")
	}

	//roleが無ければcustomer扱い
	role := model.RoleCustomer
	if v, ok := claims["role"]; ok {
		s, err := parseString(v)
		if err != nil {
			return errors.New("invalid role")
		}
		if s != "" {
			role = model.Role(strings.ToLower(s))
		}
	}

	//contextへ保存
	c.Set(CtxUserIDKey, userID)
	c.Set(CtxUserRoleKey, role)
	if name, err := parseString(claims["name"]); err == nil && name != "" {
		c.Set(CtxUserNameKey, name)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}
