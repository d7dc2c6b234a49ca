package auth

import (
	"fmt"
	"strconv"
	"time"

	"CamelliaIM/pkg/errors"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// JWTAuthenticator 基于HMAC JWT的身份解析器
type JWTAuthenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTAuthenticator 创建JWT解析器
func NewJWTAuthenticator(secret string, ttl time.Duration) *JWTAuthenticator {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &JWTAuthenticator{secret: []byte(secret), ttl: ttl}
}

// ResolveIdentity 校验令牌并返回用户ID，失败返回AuthFailed错误
func (a *JWTAuthenticator) ResolveIdentity(token string) (uint, error) {
	if token == "" {
		return 0, errors.WithCode(errors.CodeAuthFailed, "empty token")
	}

	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return 0, errors.WrapCode(errors.CodeAuthFailed, err, "token verify failed")
	}
	if !parsed.Valid {
		return 0, errors.WithCode(errors.CodeAuthFailed, "invalid token")
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return 0, errors.WithCode(errors.CodeAuthFailed, "claims type mismatch")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.WithCode(errors.CodeAuthFailed, "missing subject")
	}

	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, errors.WrapCode(errors.CodeAuthFailed, err, "subject is not a user id")
	}
	return uint(userID), nil
}

// Generate 为指定用户签发令牌（登录服务与测试用）
func (a *JWTAuthenticator) Generate(userID uint) (string, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return tok.SignedString(a.secret)
}
