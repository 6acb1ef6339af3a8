package lcu

import "encoding/base64"

// BuildAuthHeader returns the Basic credential value for the `riot` user and the given token.
func BuildAuthHeader(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(basicAuthUser + ":" + token))
}
