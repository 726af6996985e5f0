package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of bearer tokens issued by the identity provider.
type JWTClaims struct {
	TeacherGUID string `json:"IndividualGuid"`
	FullName    string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Caller is the resolved identity of the teacher issuing a command.
type Caller struct {
	TeacherGUID string
	Privileged  bool
}
