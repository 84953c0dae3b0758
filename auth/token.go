package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "planning-poker"

// NodeClaims defines the data stored inside a node token.
type NodeClaims struct {
	NodeID string `json:"node_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT identifying a node on the bus.
func GenerateToken(nodeID string, secret []byte, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &NodeClaims{
		NodeID: nodeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   nodeID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// HS256: nodes and broker share the bus secret.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature, issuer and expiration of a node token.
func ValidateToken(tokenString string, secret []byte) (*NodeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &NodeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*NodeClaims); ok && token.Valid && claims.NodeID != "" {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
